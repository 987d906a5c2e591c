package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetdesk/internal/vehicle"
)

// VehicleSelectedMsg is emitted when a vehicle is picked.
type VehicleSelectedMsg struct {
	Vehicle *vehicle.Vehicle
}

// VehiclePicker lists the company vehicles and lets the user pick one.
type VehiclePicker struct {
	vehicles  *vehicle.Service
	companyID uuid.UUID

	list   []*vehicle.Vehicle
	cursor int
	err    error
	loaded bool
}

func NewVehiclePicker(svc *vehicle.Service, companyID uuid.UUID) VehiclePicker {
	return VehiclePicker{vehicles: svc, companyID: companyID}
}

type pickerLoadedMsg struct {
	vehicles []*vehicle.Vehicle
	err      error
}

func (p VehiclePicker) Init() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		vehicles, err := p.vehicles.List(ctx, p.companyID)

		return pickerLoadedMsg{vehicles: vehicles, err: err}
	}
}

func (p VehiclePicker) Update(msg tea.Msg) (VehiclePicker, tea.Cmd) {
	switch msg := msg.(type) {
	case pickerLoadedMsg:
		p.loaded = true
		p.list = msg.vehicles
		p.err = msg.err
		p.cursor = 0

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyUp:
			if p.cursor > 0 {
				p.cursor--
			}
		case tea.KeyDown:
			if p.cursor < len(p.list)-1 {
				p.cursor++
			}
		case tea.KeyEnter:
			if p.cursor < len(p.list) {
				v := p.list[p.cursor]
				return p, func() tea.Msg { return VehicleSelectedMsg{Vehicle: v} }
			}
		}
	}

	return p, nil
}

func (p VehiclePicker) View() string {
	switch {
	case !p.loaded:
		return "Loading vehicles..."
	case p.err != nil:
		return errorStyle.Render(fmt.Sprintf("Error: %v", p.err))
	case len(p.list) == 0:
		return "No vehicles registered.\n\n(Esc to back)"
	}

	var sb strings.Builder
	sb.WriteString("Select Vehicle:\n\n")

	for i, v := range p.list {
		cursor := " "
		if i == p.cursor {
			cursor = ">"
		}

		fmt.Fprintf(&sb, "%s %s  %s %s\n", cursor, v.Registration, v.Make, v.Model)
	}

	return sb.String()
}
