//go:build !nogtk && cgo

package ui

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/cpuguy83/calrange/internal/calendar"
	"github.com/cpuguy83/calrange/internal/picker"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// Stack page names, one per picker panel.
var panelPages = map[picker.Panel]string{
	picker.Calendar:     "calendar",
	picker.SelectMonth:  "months",
	picker.SelectYear:   "years",
	picker.CustomRanges: "presets",
}

// dayButton is a day cell widget and its position in the grid.
type dayButton struct {
	btn      *gtk.Button
	row, col int
}

// Popup is the range picker window.
type Popup struct {
	shared       *picker.Shared
	hideOnSelect bool

	window    *gtk.Window
	content   *gtk.Box
	prevBtn   *gtk.Button
	nextBtn   *gtk.Button
	monthBtn  *gtk.Button
	yearBtn   *gtk.Button
	stack     *gtk.Stack
	dayGrid   *gtk.Grid
	monthGrid *gtk.Grid
	yearGrid  *gtk.Grid
	presetBox *gtk.ListBox
	statusBar *gtk.Label

	// Day widgets of the month currently built into dayGrid.
	days  []dayButton
	shown picker.Cursor
	built bool

	mu       sync.RWMutex
	stale    bool
	lastSync time.Time

	dismissTimer glib.SourceHandle
}

// NewPopup creates a new popup window for the shared picker.
func NewPopup(shared *picker.Shared, hideOnSelect bool) *Popup {
	return &Popup{
		shared:       shared,
		hideOnSelect: hideOnSelect,
	}
}

// Init initializes the GTK widgets. Must be called from GTK main thread.
func (p *Popup) Init() {
	// Initialize libadwaita for automatic dark/light mode support
	adw.Init()

	p.window = gtk.NewWindow()
	p.window.SetTitle("CalRange")
	p.window.SetDefaultSize(340, 420)

	// Layer shell setup for Wayland compositors
	if gtk4layershell.IsSupported() {
		slog.Debug("layer shell supported")
		gtk4layershell.InitForWindow(p.window)
		gtk4layershell.SetLayer(p.window, gtk4layershell.LayerShellLayerTop)
		gtk4layershell.SetAnchor(p.window, gtk4layershell.LayerShellEdgeTop, true)
		gtk4layershell.SetAnchor(p.window, gtk4layershell.LayerShellEdgeRight, true)
		gtk4layershell.SetMargin(p.window, gtk4layershell.LayerShellEdgeTop, 8)
		gtk4layershell.SetMargin(p.window, gtk4layershell.LayerShellEdgeRight, 8)
		gtk4layershell.SetKeyboardMode(p.window, gtk4layershell.LayerShellKeyboardModeOnDemand)
		gtk4layershell.SetNamespace(p.window, "calrange-popup")
		p.window.SetDecorated(false)

		// Auto-dismiss on focus loss
		p.window.NotifyProperty("is-active", func() {
			if !p.window.IsVisible() {
				return
			}
			if p.window.IsActive() {
				p.cancelDismiss()
				return
			}
			p.scheduleDismiss(300)
		})
	}

	// Hide on close request
	p.window.ConnectCloseRequest(func() bool {
		p.window.SetVisible(false)
		return true
	})

	// Escape backs out of a panel, then closes. Page keys change month.
	keyController := gtk.NewEventControllerKey()
	keyController.ConnectKeyPressed(func(keyval, keycode uint, state gdk.ModifierType) bool {
		switch keyval {
		case gdk.KEY_Escape:
			back := false
			p.shared.Do(func(pk *picker.Picker) {
				if pk.Panel() != picker.Calendar {
					pk.SetPanel(picker.Calendar)
					back = true
				}
			})
			if back {
				p.render()
			} else {
				p.hideAll()
			}
			return true
		case gdk.KEY_Page_Up:
			p.update(func(pk *picker.Picker) { pk.PrevMonth() })
			return true
		case gdk.KEY_Page_Down:
			p.update(func(pk *picker.Picker) { pk.NextMonth() })
			return true
		}
		return false
	})
	p.window.AddController(keyController)

	// Build UI
	p.buildUI()
	p.applyCSS()
	p.render()
}

// buildUI constructs the widget hierarchy.
func (p *Popup) buildUI() {
	// Main container
	p.content = gtk.NewBox(gtk.OrientationVertical, 0)
	p.content.AddCSSClass("popup-container")
	p.window.SetChild(p.content)

	p.content.Append(p.buildHeader())

	p.stack = gtk.NewStack()
	p.stack.SetTransitionType(gtk.StackTransitionTypeCrossfade)
	p.stack.SetVExpand(true)
	p.content.Append(p.stack)

	// Calendar page; scrolling over it changes month
	p.dayGrid = gtk.NewGrid()
	p.dayGrid.AddCSSClass("day-grid")
	p.dayGrid.SetColumnHomogeneous(true)
	p.dayGrid.SetRowHomogeneous(true)
	scroll := gtk.NewEventControllerScroll(gtk.EventControllerScrollVertical | gtk.EventControllerScrollDiscrete)
	scroll.ConnectScroll(func(dx, dy float64) bool {
		switch {
		case dy > 0:
			p.update(func(pk *picker.Picker) { pk.NextMonth() })
		case dy < 0:
			p.update(func(pk *picker.Picker) { pk.PrevMonth() })
		}
		return true
	})
	p.dayGrid.AddController(scroll)
	p.stack.AddNamed(p.dayGrid, panelPages[picker.Calendar])

	p.monthGrid = gtk.NewGrid()
	p.monthGrid.AddCSSClass("choice-grid")
	p.monthGrid.SetColumnHomogeneous(true)
	p.stack.AddNamed(p.monthGrid, panelPages[picker.SelectMonth])

	years := gtk.NewScrolledWindow()
	years.SetPolicy(gtk.PolicyNever, gtk.PolicyAutomatic)
	p.yearGrid = gtk.NewGrid()
	p.yearGrid.AddCSSClass("choice-grid")
	p.yearGrid.SetColumnHomogeneous(true)
	years.SetChild(p.yearGrid)
	p.stack.AddNamed(years, panelPages[picker.SelectYear])

	presets := gtk.NewScrolledWindow()
	presets.SetPolicy(gtk.PolicyNever, gtk.PolicyAutomatic)
	p.presetBox = gtk.NewListBox()
	p.presetBox.SetSelectionMode(gtk.SelectionNone)
	p.presetBox.AddCSSClass("preset-list")
	presets.SetChild(p.presetBox)
	p.stack.AddNamed(presets, panelPages[picker.CustomRanges])

	p.content.Append(p.buildFooter())

	// Status bar
	p.statusBar = gtk.NewLabel("")
	p.statusBar.AddCSSClass("status-bar")
	p.statusBar.SetXAlign(0)
	p.content.Append(p.statusBar)
}

// buildHeader creates the month navigation bar.
func (p *Popup) buildHeader() *gtk.Box {
	header := gtk.NewBox(gtk.OrientationHorizontal, 4)
	header.AddCSSClass("popup-header")

	p.prevBtn = gtk.NewButton()
	p.prevBtn.AddCSSClass("nav-btn")
	p.prevBtn.ConnectClicked(func() {
		p.update(func(pk *picker.Picker) { pk.PrevMonth() })
	})
	header.Append(p.prevBtn)

	title := gtk.NewBox(gtk.OrientationHorizontal, 4)
	title.SetHExpand(true)
	title.SetHAlign(gtk.AlignCenter)
	header.Append(title)

	p.monthBtn = gtk.NewButton()
	p.monthBtn.AddCSSClass("header-title")
	p.monthBtn.ConnectClicked(func() { p.togglePanel(picker.SelectMonth) })
	title.Append(p.monthBtn)

	p.yearBtn = gtk.NewButton()
	p.yearBtn.AddCSSClass("header-title")
	p.yearBtn.ConnectClicked(func() { p.togglePanel(picker.SelectYear) })
	title.Append(p.yearBtn)

	p.nextBtn = gtk.NewButton()
	p.nextBtn.AddCSSClass("nav-btn")
	p.nextBtn.ConnectClicked(func() {
		p.update(func(pk *picker.Picker) { pk.NextMonth() })
	})
	header.Append(p.nextBtn)

	return header
}

// buildFooter creates the preset, today and clear actions.
func (p *Popup) buildFooter() *gtk.Box {
	footer := gtk.NewBox(gtk.OrientationHorizontal, 6)
	footer.AddCSSClass("popup-footer")

	presets := gtk.NewButtonWithLabel("Presets")
	presets.ConnectClicked(func() { p.togglePanel(picker.CustomRanges) })
	footer.Append(presets)

	spacer := gtk.NewBox(gtk.OrientationHorizontal, 0)
	spacer.SetHExpand(true)
	footer.Append(spacer)

	today := gtk.NewButtonWithLabel("Today")
	today.ConnectClicked(func() {
		p.update(func(pk *picker.Picker) {
			d := pk.Today()
			pk.SetCursor(d.Year, d.Month)
			pk.SetPanel(picker.Calendar)
		})
	})
	footer.Append(today)

	clearBtn := gtk.NewButtonWithLabel("Clear")
	clearBtn.ConnectClicked(func() {
		p.update(func(pk *picker.Picker) { pk.Reset() })
	})
	footer.Append(clearBtn)

	return footer
}

// applyCSS applies custom styling with libadwaita color variables.
func (p *Popup) applyCSS() {
	css := `
		/* Main container */
		.popup-container {
			background: @window_bg_color;
			border-radius: 12px;
			border: 1px solid alpha(@borders, 0.5);
		}

		/* Header */
		.popup-header {
			padding: 12px 12px 8px 12px;
			border-bottom: 1px solid alpha(@borders, 0.3);
		}

		.header-title {
			font-size: 15px;
			font-weight: 600;
			letter-spacing: 0.3px;
			background: transparent;
		}

		.nav-btn {
			min-width: 28px;
			min-height: 28px;
			border-radius: 8px;
		}

		/* Day grid */
		.day-grid {
			padding: 8px 12px;
		}

		.weekday-header {
			font-size: 11px;
			font-weight: 600;
			color: alpha(@view_fg_color, 0.5);
			padding: 4px 0;
		}

		.weekday-header.weekend {
			color: alpha(@accent_color, 0.7);
		}

		button.day {
			min-width: 36px;
			min-height: 32px;
			padding: 0;
			margin: 1px 0;
			border-radius: 0;
			background: transparent;
			font-size: 13px;
		}

		button.day:hover {
			background: alpha(@accent_color, 0.12);
		}

		button.day.weekend {
			color: alpha(@view_fg_color, 0.6);
		}

		button.day.today {
			font-weight: 700;
			color: @accent_color;
		}

		button.day.disabled {
			opacity: 0.3;
		}

		button.day.in-range {
			background: alpha(@accent_bg_color, 0.25);
		}

		button.day.boundary {
			background: @accent_bg_color;
			color: @accent_fg_color;
		}

		button.day.boundary-lower {
			border-radius: 8px 0 0 8px;
		}

		button.day.boundary-higher {
			border-radius: 0 8px 8px 0;
		}

		/* Month and year choices */
		.choice-grid {
			padding: 12px;
		}

		.choice-grid button {
			margin: 3px;
			border-radius: 8px;
		}

		.choice-grid button.current {
			background: @accent_bg_color;
			color: @accent_fg_color;
		}

		/* Presets */
		.preset-list {
			background: transparent;
		}

		.preset-row {
			padding: 8px 16px;
			border-bottom: 1px solid alpha(@borders, 0.15);
		}

		.preset-title {
			font-size: 13px;
			font-weight: 500;
		}

		.preset-meta {
			font-size: 11px;
			color: alpha(@view_fg_color, 0.5);
			margin-top: 2px;
		}

		.empty-subtitle {
			padding: 48px 24px;
			font-size: 13px;
			color: alpha(@view_fg_color, 0.4);
		}

		/* Footer */
		.popup-footer {
			padding: 6px 12px;
			border-top: 1px solid alpha(@borders, 0.2);
		}

		/* Status bar */
		.status-bar {
			padding: 8px 16px;
			font-size: 11px;
			color: alpha(@view_fg_color, 0.5);
			border-top: 1px solid alpha(@borders, 0.2);
			background: alpha(@view_bg_color, 0.5);
			border-radius: 0 0 12px 12px;
		}

		.status-bar.stale {
			color: @warning_color;
		}
	`

	provider := gtk.NewCSSProvider()
	provider.LoadFromData(css)

	if display := gdk.DisplayGetDefault(); display != nil {
		gtk.StyleContextAddProviderForDisplay(display, provider, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)
	}
}

// Show shows the popup window.
func (p *Popup) Show() {
	if p.window == nil {
		return
	}
	glib.IdleAdd(func() {
		p.render()
		p.window.SetVisible(true)
		p.window.Present()
	})
}

// Hide hides the popup window.
func (p *Popup) Hide() {
	if p.window == nil {
		return
	}
	glib.IdleAdd(p.hideAll)
}

func (p *Popup) hideAll() {
	p.window.SetVisible(false)
	p.cancelDismiss()
}

func (p *Popup) scheduleDismiss(ms uint) {
	if p.dismissTimer != 0 {
		return
	}
	p.dismissTimer = glib.TimeoutAdd(ms, func() bool {
		if p.window.IsVisible() && !p.window.IsActive() {
			p.hideAll()
		}
		p.dismissTimer = 0
		return false
	})
}

// hideAfter hides the popup once the selection has been shown briefly.
func (p *Popup) hideAfter(ms uint) {
	glib.TimeoutAdd(ms, func() bool {
		p.hideAll()
		return false
	})
}

func (p *Popup) cancelDismiss() {
	if p.dismissTimer != 0 {
		glib.SourceRemove(p.dismissTimer)
		p.dismissTimer = 0
	}
}

// Toggle shows or hides the popup.
func (p *Popup) Toggle() {
	if p.window == nil {
		return
	}
	glib.IdleAdd(func() {
		if p.window.IsVisible() {
			p.hideAll()
		} else {
			p.render()
			p.window.SetVisible(true)
			p.window.Present()
		}
	})
}

// Refresh redraws the popup from the picker state.
func (p *Popup) Refresh() {
	if p.window == nil {
		return
	}
	glib.IdleAdd(p.render)
}

// SetStale marks the preset list as potentially stale.
func (p *Popup) SetStale(stale bool) {
	p.mu.Lock()
	p.stale = stale
	if !stale {
		p.lastSync = time.Now()
	}
	p.mu.Unlock()

	if p.window != nil {
		glib.IdleAdd(p.render)
	}
}

// view copies the picker state.
func (p *Popup) view() View {
	var v View
	p.shared.Do(func(pk *picker.Picker) {
		v = Snapshot(pk)
	})
	return v
}

// update applies fn to the picker and redraws.
func (p *Popup) update(fn func(pk *picker.Picker)) {
	p.shared.Do(fn)
	p.render()
}

// togglePanel opens panel, or returns to the calendar if it is open.
func (p *Popup) togglePanel(panel picker.Panel) {
	p.update(func(pk *picker.Picker) {
		if pk.Panel() == panel {
			pk.SetPanel(picker.Calendar)
			return
		}
		pk.SetPanel(panel)
	})
}

// render brings every widget in line with the picker state.
func (p *Popup) render() {
	if p.stack == nil {
		return
	}

	v := p.view()

	p.prevBtn.SetLabel(v.PrevLabel)
	p.nextBtn.SetLabel(v.NextLabel)
	p.monthBtn.SetLabel(v.Months[v.Cursor.Month])
	p.yearBtn.SetLabel(strconv.Itoa(v.Cursor.Year))

	if !p.built || p.shown != v.Cursor {
		p.buildDays(v)
	} else {
		p.styleDays(v)
	}

	switch v.Panel {
	case picker.SelectMonth:
		p.buildMonths(v)
	case picker.SelectYear:
		p.buildYears(v)
	case picker.CustomRanges:
		p.buildPresets(v)
	}
	p.stack.SetVisibleChildName(panelPages[v.Panel])

	p.updateStatusBar(v)
}

// buildDays recreates the day grid for the displayed month.
func (p *Popup) buildDays(v View) {
	clearChildren(p.dayGrid)
	p.days = p.days[:0]

	for col, name := range v.Weekdays {
		label := gtk.NewLabel(name)
		label.AddCSSClass("weekday-header")
		if calendar.IsWeekend(col) {
			label.AddCSSClass("weekend")
		}
		p.dayGrid.Attach(label, col, 0, 1, 1)
	}

	for r, row := range v.Rows {
		for c, cell := range row {
			if cell.Blank {
				p.dayGrid.Attach(gtk.NewLabel(""), c, r+1, 1, 1)
				continue
			}
			p.dayGrid.Attach(p.createDayButton(cell, r, c), c, r+1, 1, 1)
		}
	}

	p.shown = v.Cursor
	p.built = true
}

// createDayButton creates the button for one day of the month.
func (p *Popup) createDayButton(cell picker.Cell, row, col int) *gtk.Button {
	d := cell.Date

	btn := gtk.NewButtonWithLabel(strconv.Itoa(cell.Day))
	btn.SetCSSClasses(CellClasses(cell))
	btn.SetSensitive(!cell.Disabled)
	btn.SetTooltipText(d.String())

	btn.ConnectClicked(func() {
		var done bool
		p.shared.Do(func(pk *picker.Picker) {
			done = pk.Activate(d)
		})
		p.render()
		if done && p.hideOnSelect {
			p.hideAfter(400)
		}
	})

	// Hover previews the range while the end date is being picked. Only
	// styles change so the button under the pointer survives.
	motion := gtk.NewEventControllerMotion()
	motion.ConnectEnter(func(x, y float64) {
		p.shared.Do(func(pk *picker.Picker) {
			pk.Hover(d)
		})
		p.styleDays(p.view())
	})
	btn.AddController(motion)

	p.days = append(p.days, dayButton{btn: btn, row: row, col: col})
	return btn
}

// styleDays updates the classes of the existing day buttons.
func (p *Popup) styleDays(v View) {
	for _, db := range p.days {
		if db.row >= len(v.Rows) {
			continue
		}
		cell := v.Rows[db.row][db.col]
		db.btn.SetCSSClasses(CellClasses(cell))
		db.btn.SetSensitive(!cell.Disabled)
	}
}

// buildMonths fills the month panel.
func (p *Popup) buildMonths(v View) {
	clearChildren(p.monthGrid)
	for i, name := range v.Months {
		btn := gtk.NewButtonWithLabel(name)
		if i == v.Cursor.Month {
			btn.AddCSSClass("current")
		}
		btn.ConnectClicked(func() {
			p.update(func(pk *picker.Picker) { pk.SelectMonth(i) })
		})
		p.monthGrid.Attach(btn, i%3, i/3, 1, 1)
	}
}

// buildYears fills the year panel.
func (p *Popup) buildYears(v View) {
	clearChildren(p.yearGrid)
	for i, year := range v.Years {
		btn := gtk.NewButtonWithLabel(strconv.Itoa(year))
		if year == v.Cursor.Year {
			btn.AddCSSClass("current")
		}
		btn.ConnectClicked(func() {
			p.update(func(pk *picker.Picker) { pk.SelectYear(year) })
		})
		p.yearGrid.Attach(btn, i%4, i/4, 1, 1)
	}
}

// buildPresets fills the preset panel.
func (p *Popup) buildPresets(v View) {
	for child := p.presetBox.FirstChild(); child != nil; child = p.presetBox.FirstChild() {
		p.presetBox.Remove(child)
	}

	if len(v.Presets) == 0 {
		empty := gtk.NewLabel("No presets configured")
		empty.AddCSSClass("empty-subtitle")
		p.presetBox.Append(empty)
		return
	}

	for i, preset := range v.Presets {
		p.presetBox.Append(p.createPresetRow(i, preset))
	}
}

// createPresetRow creates a clickable row for a preset.
func (p *Popup) createPresetRow(i int, preset calendar.Preset) *gtk.Button {
	box := gtk.NewBox(gtk.OrientationVertical, 0)

	title := gtk.NewLabel(preset.Label)
	title.AddCSSClass("preset-title")
	title.SetXAlign(0)
	title.SetEllipsize(3) // PANGO_ELLIPSIZE_END
	box.Append(title)

	meta := FormatRange(preset.Range)
	if preset.Source != "" {
		meta += " • " + preset.Source
	}
	metaLabel := gtk.NewLabel(meta)
	metaLabel.AddCSSClass("preset-meta")
	metaLabel.SetXAlign(0)
	box.Append(metaLabel)

	btn := gtk.NewButton()
	btn.AddCSSClass("flat")
	btn.AddCSSClass("preset-row")
	btn.SetChild(box)
	btn.ConnectClicked(func() {
		var err error
		p.shared.Do(func(pk *picker.Picker) {
			err = pk.ApplyPreset(i)
		})
		if err != nil {
			slog.Warn("failed to apply preset", "label", preset.Label, "error", err)
		}
		p.render()
		if err == nil && p.hideOnSelect {
			p.hideAfter(400)
		}
	})
	return btn
}

// updateStatusBar updates the status bar text.
func (p *Popup) updateStatusBar(v View) {
	p.mu.RLock()
	stale := p.stale
	lastSync := p.lastSync
	p.mu.RUnlock()

	p.statusBar.RemoveCSSClass("stale")

	text := v.Status()
	if stale {
		if lastSync.IsZero() {
			text = fmt.Sprintf("⚠ Presets unavailable • %s", text)
		} else {
			text = fmt.Sprintf("⚠ Presets may be stale (synced %s) • %s", lastSync.Format("15:04"), text)
		}
		p.statusBar.AddCSSClass("stale")
	}

	p.statusBar.SetText(text)
}

// clearChildren removes every child of a grid.
func clearChildren(g *gtk.Grid) {
	for child := g.FirstChild(); child != nil; child = g.FirstChild() {
		g.Remove(child)
	}
}
