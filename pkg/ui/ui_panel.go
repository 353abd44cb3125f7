package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// UIWidget is an interface for all UI widgets
type UIWidget interface {
	Update()
	Draw(screen *ebiten.Image)
	GetHeight() float64
}

// UIPanel manages a column of widgets grouped in sections, scrollable with the wheel.
type UIPanel struct {
	Title         string
	X, Y          float64 // Panel position
	Width, Height float64 // Panel dimensions
	Widgets       []UIWidget
	Labels        []string // drawn above the widget, empty for buttons
	ScrollOffset  float64  // Current scroll position

	// Styling
	BGColor     color.RGBA
	BorderColor color.RGBA

	sections []PanelSection
}

// PanelSection is a titled run of widgets.
type PanelSection struct {
	Title      string
	StartIndex int // Widget index where this section starts
	EndIndex   int // Widget index where this section ends (exclusive)
}

// NewUIPanel creates a new UI panel
func NewUIPanel(title string, x, y, width, height float64) *UIPanel {
	return &UIPanel{
		Title:       title,
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		BGColor:     color.RGBA{R: 40, G: 40, B: 45, A: 230},
		BorderColor: color.RGBA{R: 100, G: 100, B: 110, A: 255},
	}
}

// AddSection adds a section header
func (p *UIPanel) AddSection(title string) {
	p.sections = append(p.sections, PanelSection{
		Title:      title,
		StartIndex: len(p.Widgets),
	})
}

// EndSection closes the current section
func (p *UIPanel) EndSection() {
	if len(p.sections) > 0 {
		p.sections[len(p.sections)-1].EndIndex = len(p.Widgets)
	}
}

// AddButton adds a full-width button to the panel
func (p *UIPanel) AddButton(label string, onClick func()) *Button {
	button := NewButton(p.X+10, p.Y+p.calculateNextYOffset()+20, p.Width-20, 24, label, onClick)
	p.add(button, "")
	return button
}

// AddCheckbox adds a checkbox widget to the panel
func (p *UIPanel) AddCheckbox(label string, value bool) *Checkbox {
	checkbox := NewCheckbox(p.X+10, p.Y+p.calculateNextYOffset()+20, label, value)
	p.add(checkbox, label)
	return checkbox
}

// AddSlider adds a slider widget to the panel
func (p *UIPanel) AddSlider(label string, min, max, value float64) *Slider {
	slider := NewSlider(p.X+10, p.Y+p.calculateNextYOffset()+20, p.Width-20, label, min, max, value)
	p.add(slider, label)
	return slider
}

func (p *UIPanel) add(w UIWidget, label string) {
	p.Widgets = append(p.Widgets, w)
	p.Labels = append(p.Labels, label)
}

// calculateNextYOffset calculates the Y offset for the next widget
func (p *UIPanel) calculateNextYOffset() float64 {
	offset := float64(len(p.sections)) * 25
	for i, widget := range p.Widgets {
		offset += widget.GetHeight()
		if p.Labels[i] != "" {
			offset += 15
		}
	}
	return offset
}

// calculateTotalHeight calculates the total content height
func (p *UIPanel) calculateTotalHeight() float64 {
	return 30 + p.calculateNextYOffset()
}

// Update handles input for all widgets
func (p *UIPanel) Update() {
	// Handle scroll
	_, dy := ebiten.Wheel()
	if dy != 0 {
		p.scroll(dy)
	}

	// Hidden widgets take no input
	for i, visible := range p.Layout() {
		if visible {
			p.Widgets[i].Update()
		}
	}
}

func (p *UIPanel) scroll(dy float64) {
	p.ScrollOffset -= dy * 20
	maxScroll := max(p.calculateTotalHeight()-p.Height+40, 0)
	p.ScrollOffset = min(max(p.ScrollOffset, 0), maxScroll)
}

// Layout moves every widget to its scrolled position and reports which ones
// are visible. Draw calls it; hit tests use the same positions.
func (p *UIPanel) Layout() []bool {
	visible := make([]bool, len(p.Widgets))
	currentY := p.Y + 30 - p.ScrollOffset
	for _, section := range p.sections {
		currentY += 25
		for i := section.StartIndex; i < section.EndIndex && i < len(p.Widgets); i++ {
			if p.Labels[i] != "" {
				currentY += 15
			}
			p.adjustWidgetPosition(p.Widgets[i], currentY)
			visible[i] = currentY >= p.Y && currentY+p.Widgets[i].GetHeight() <= p.Y+p.Height
			currentY += p.Widgets[i].GetHeight()
		}
	}
	return visible
}

// Draw renders the panel and all widgets
func (p *UIPanel) Draw(screen *ebiten.Image) {
	// Draw panel background
	vector.FillRect(screen,
		float32(p.X), float32(p.Y),
		float32(p.Width), float32(p.Height),
		p.BGColor, true)

	// Draw border
	vector.StrokeRect(screen,
		float32(p.X), float32(p.Y),
		float32(p.Width), float32(p.Height),
		2, p.BorderColor, true)

	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+10), int(p.Y+5))

	visible := p.Layout()
	currentY := p.Y + 30 - p.ScrollOffset
	for _, section := range p.sections {
		if currentY >= p.Y && currentY+20 <= p.Y+p.Height {
			vector.FillRect(screen,
				float32(p.X+5), float32(currentY),
				float32(p.Width-10), 20,
				color.RGBA{R: 60, G: 60, B: 70, A: 255}, true)
			ebitenutil.DebugPrintAt(screen, section.Title, int(p.X+10), int(currentY+2))
		}
		currentY += 25

		for i := section.StartIndex; i < section.EndIndex && i < len(p.Widgets); i++ {
			widget := p.Widgets[i]
			if label := p.Labels[i]; label != "" {
				if visible[i] {
					ebitenutil.DebugPrintAt(screen, label, int(p.X+10), int(currentY))
				}
				currentY += 15
			}
			if visible[i] {
				widget.Draw(screen)
			}
			currentY += widget.GetHeight()
		}
	}
}

// adjustWidgetPosition moves widget to y
func (p *UIPanel) adjustWidgetPosition(widget UIWidget, y float64) {
	switch w := widget.(type) {
	case *Button:
		w.Y = y
	case *Checkbox:
		w.Y = y
	case *Slider:
		w.Y = y
	}
}
