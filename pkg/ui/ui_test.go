package ui

import "testing"

func TestButton_ClickOncePerPress(t *testing.T) {
	clicks := 0
	b := NewButton(10, 10, 100, 20, "Toggle", func() { clicks++ })

	b.handle(50, 20, true)
	b.handle(50, 20, true) // still held
	if clicks != 1 {
		t.Fatalf("clicks = %d after one press, want 1", clicks)
	}
	b.handle(50, 20, false)
	b.handle(50, 20, true)
	if clicks != 2 {
		t.Errorf("clicks = %d after two presses, want 2", clicks)
	}
	b.handle(200, 20, true)
	if clicks != 2 {
		t.Error("a press outside the button should not click")
	}
}

func TestCheckbox_Toggle(t *testing.T) {
	var got []bool
	c := NewCheckbox(0, 0, "Show cones", true)
	c.OnChange = func(v bool) { got = append(got, v) }

	c.handle(8, 8, true)
	c.handle(8, 8, true)
	c.handle(8, 8, false)
	c.handle(8, 8, true)
	if len(got) != 2 || got[0] != false || got[1] != true || !c.Value {
		t.Errorf("changes = %v value = %v", got, c.Value)
	}
}

func TestSlider(t *testing.T) {
	s := NewSlider(0, 0, 100, "Time scale", 0, 4, 10)
	if s.Value != 4 {
		t.Errorf("initial value not clamped: %v", s.Value)
	}
	s.handle(25, 5, true)
	if s.Value != 1 {
		t.Errorf("value = %v, want 1", s.Value)
	}
	s.handle(75, 5, false)
	if s.Value != 1 {
		t.Error("slider moved without a press")
	}
}

func TestUIPanel_Layout(t *testing.T) {
	p := NewUIPanel("Debug", 0, 0, 200, 160)
	p.AddSection("Switch Points")
	button := p.AddButton("Switch Points: ON", nil)
	p.EndSection()
	p.AddSection("View")
	first := p.AddCheckbox("Show cones", true)
	second := p.AddCheckbox("Show gizmos", true)
	p.EndSection()

	visible := p.Layout()
	if len(visible) != 3 {
		t.Fatalf("visible = %v", visible)
	}
	if !visible[0] || !visible[1] {
		t.Errorf("first widgets should be visible: %v", visible)
	}
	if !(button.Y < first.Y && first.Y < second.Y) {
		t.Errorf("widgets out of order: %v %v %v", button.Y, first.Y, second.Y)
	}
	if visible[2] {
		t.Errorf("second checkbox at %v should be clipped by the 160px panel", second.Y)
	}

	p.scroll(-10)
	if p.ScrollOffset <= 0 {
		t.Fatalf("scroll offset = %v", p.ScrollOffset)
	}
	p.Layout()
	if second.Y >= 160 {
		t.Errorf("scrolling did not move widgets up: %v", second.Y)
	}
}
