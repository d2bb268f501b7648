package canvas

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"layr/internal/domain"
)

const (
	// AddGutter separates a hand-added frame from the last frame.
	AddGutter = 50.0
	// GenerateGap separates the first generated frame from the first existing one.
	GenerateGap = 100.0

	zDragging = 60
	zActive   = 10
	zIdle     = 5
)

var ErrFrameIndex = errors.New("frame index out of range")

// Document is the ordered frame list plus the annotation layer. Order is
// creation order and doubles as stacking order.
type Document struct {
	frames      []domain.ScreenFrame
	annotations domain.Annotations
	active      int
	dragging    bool
	platform    domain.Platform
	newID       func() string
}

func NewDocument(platform domain.Platform) *Document {
	if platform == "" {
		platform = domain.PlatformMobile
	}
	return &Document{
		active:   -1,
		platform: platform,
		newID:    func() string { return uuid.New().String() },
	}
}

func (d *Document) Len() int { return len(d.frames) }

// Frames returns a copy of the frame list.
func (d *Document) Frames() []domain.ScreenFrame {
	out := make([]domain.ScreenFrame, len(d.frames))
	copy(out, d.frames)
	return out
}

func (d *Document) Frame(i int) (domain.ScreenFrame, bool) {
	if i < 0 || i >= len(d.frames) {
		return domain.ScreenFrame{}, false
	}
	return d.frames[i], true
}

// IndexOf returns the index of the frame with the given ID, or -1.
func (d *Document) IndexOf(id string) int {
	for i := range d.frames {
		if d.frames[i].ID == id {
			return i
		}
	}
	return -1
}

func (d *Document) Annotations() *domain.Annotations { return &d.annotations }

// Active returns the selected frame index, or -1.
func (d *Document) Active() int { return d.active }

func (d *Document) Select(i int) error {
	if i < -1 || i >= len(d.frames) {
		return ErrFrameIndex
	}
	d.active = i
	return nil
}

func (d *Document) Platform() domain.Platform { return d.platform }

func (d *Document) SetPlatform(p domain.Platform) { d.platform = p }

func (d *Document) newFrame(content, name string) domain.ScreenFrame {
	size := d.platform.Size()
	return domain.ScreenFrame{
		ID:       d.newID(),
		Name:     name,
		Content:  content,
		Type:     "html",
		Platform: d.platform,
		Width:    size.Width,
		Height:   size.Height,
	}
}

// AddFrame appends a frame to the right of the last one, or at the origin
// when the document is empty, and selects it.
func (d *Document) AddFrame(content, name string) int {
	f := d.newFrame(content, name)
	if n := len(d.frames); n > 0 {
		last := d.frames[n-1]
		f.X = last.X + last.Bounds().Width + AddGutter
		f.Y = last.Y
	}
	d.frames = append(d.frames, f)
	d.active = len(d.frames) - 1
	return d.active
}

// appendCascade appends count frames in a row starting to the right of the
// first existing frame and returns their IDs.
func (d *Document) appendCascade(count int, content string) []string {
	origin := domain.Point{}
	width := d.platform.Size().Width
	if len(d.frames) > 0 {
		first := d.frames[0]
		origin = domain.Point{X: first.X + first.Bounds().Width + GenerateGap, Y: first.Y}
	}
	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		f := d.newFrame(content, screenName(i+1))
		f.X = origin.X + float64(i)*(width+AddGutter)
		f.Y = origin.Y
		d.frames = append(d.frames, f)
		ids = append(ids, f.ID)
	}
	return ids
}

// RemoveFrame splices out frame i and re-resolves the selection: removing the
// active frame selects its neighbour, removing an earlier one shifts it down.
func (d *Document) RemoveFrame(i int) error {
	if err := d.checkIndex(i); err != nil {
		return err
	}
	d.frames = append(d.frames[:i], d.frames[i+1:]...)
	switch {
	case len(d.frames) == 0:
		d.active = -1
	case d.active == i:
		d.active = min(i, len(d.frames)-1)
	case d.active > i:
		d.active--
	}
	return nil
}

// MoveFrame writes a new position in place.
func (d *Document) MoveFrame(i int, pos domain.Point) error {
	if err := d.checkIndex(i); err != nil {
		return err
	}
	d.frames[i].X, d.frames[i].Y = pos.X, pos.Y
	return nil
}

func (d *Document) RenameFrame(i int, name string) error {
	if err := d.checkIndex(i); err != nil {
		return err
	}
	d.frames[i].Name = name
	return nil
}

func (d *Document) SetFrameContent(i int, content string) error {
	if err := d.checkIndex(i); err != nil {
		return err
	}
	d.frames[i].Content = content
	return nil
}

func (d *Document) LinkFrame(i int, path string) error {
	if err := d.checkIndex(i); err != nil {
		return err
	}
	d.frames[i].FilePath = path
	return nil
}

// ReplaceAll swaps the frame list wholesale and clamps the selection.
func (d *Document) ReplaceAll(frames []domain.ScreenFrame) {
	d.frames = append([]domain.ScreenFrame(nil), frames...)
	for i := range d.frames {
		if d.frames[i].ID == "" {
			d.frames[i].ID = d.newID()
		}
	}
	if d.active >= len(d.frames) {
		d.active = len(d.frames) - 1
	}
}

// Data returns the persistable form of the document.
func (d *Document) Data() domain.ProjectData {
	return domain.ProjectData{Screens: d.Frames(), Annotations: d.annotations.Clone()}
}

// Load replaces frames and annotations. The annotations value is replaced in
// place so pointers handed out by Annotations stay valid.
func (d *Document) Load(data domain.ProjectData) {
	d.ReplaceAll(data.Screens)
	d.annotations = data.Annotations.Clone()
}

// ZIndex is the stacking level of frame i.
func (d *Document) ZIndex(i int) int {
	if i != d.active {
		return zIdle
	}
	if d.dragging {
		return zDragging
	}
	return zActive
}

// RenderOrder returns frame indices bottom to top.
func (d *Document) RenderOrder() []int {
	order := make([]int, 0, len(d.frames))
	for i := range d.frames {
		if i != d.active {
			order = append(order, i)
		}
	}
	if d.active >= 0 && d.active < len(d.frames) {
		order = append(order, d.active)
	}
	return order
}

// HitTest returns the topmost frame containing the logical point.
func (d *Document) HitTest(p domain.Point) (int, bool) {
	order := d.RenderOrder()
	for k := len(order) - 1; k >= 0; k-- {
		if d.frames[order[k]].Bounds().Contains(p) {
			return order[k], true
		}
	}
	return -1, false
}

func (d *Document) checkIndex(i int) error {
	if i < 0 || i >= len(d.frames) {
		return fmt.Errorf("frame %d: %w", i, ErrFrameIndex)
	}
	return nil
}
