package canvas

import "fmt"

// SkeletonHTML is shown in a frame while its generation is outstanding.
const SkeletonHTML = `<div class="w-full h-full bg-neutral-950 flex flex-col items-center justify-center text-neutral-600 font-mono animate-pulse p-8"><div class="w-16 h-16 bg-neutral-800 rounded-full mb-6"></div><div class="w-3/4 h-4 bg-neutral-800 rounded mb-3"></div><div class="w-1/2 h-4 bg-neutral-800 rounded"></div></div>`

// NewScreenHTML is the content of a frame added by hand.
const NewScreenHTML = `<div class="w-full h-full bg-black text-white flex items-center justify-center">New Screen</div>`

// ErrorHTML is substituted for screen n (1-based) when the generator returned
// fewer screens than requested.
func ErrorHTML(n int) string {
	return fmt.Sprintf(`<div class="w-full h-full flex items-center justify-center bg-red-900/50 text-white/80">ERROR: Could not parse HTML for screen %d</div>`, n)
}

func screenName(n int) string { return fmt.Sprintf("Screen %d", n) }
