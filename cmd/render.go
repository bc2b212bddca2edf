package main

import (
	"fmt"
	"os"

	"chat-sync/domain"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

// renderRooms prints the public directory as a table on startup.
func renderRooms(rooms []domain.RoomSummary) {
	if len(rooms) == 0 {
		fmt.Println(color.New(color.FgYellow).Render("No public rooms yet"))
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Creator", "Occupancy", "Visibility"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, room := range rooms {
		occupancy := fmt.Sprintf("%d/%d", room.CurrentParticipants, room.MaxParticipants)
		if room.MaxParticipants > 0 && room.CurrentParticipants >= room.MaxParticipants {
			occupancy = color.New(color.FgRed).Render(occupancy)
		}
		table.Append([]string{
			fmt.Sprintf("%d", room.ID),
			room.Name,
			room.CreatorNickname,
			occupancy,
			string(room.Visibility),
		})
	}
	table.Render()
}
