package notify

import (
	"fmt"
	"slices"
	"strings"

	"sigawatch/internal/siga"
)

// ToastTitle is the title of every desktop notification.
const ToastTitle = "SIGA"

// groups that collide with the header fields are never listed as slots.
var reservedGroups = []string{
	"entity",
	"category",
	"subcategory",
	"motive",
	"district",
	"local",
}

// BuildMessage renders the chat message for a run: the selected options
// followed by every group and its slots, one per line.
func BuildMessage(header siga.NotificationHeader, slots *siga.SlotTable) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s - %s\n%s\n%s\n", header.Entity, header.Category, header.Subcategory, header.Motive)
	fmt.Fprintf(&sb, "Distrito: %s, Localidade: %s\n\n", header.District, header.Local)

	for _, group := range slots.Groups() {
		if slices.Contains(reservedGroups, group) {
			continue
		}
		sb.WriteString(group)
		sb.WriteString("\n")
		sb.WriteString(strings.Join(slots.Slots(group), "\n"))
		sb.WriteString("\n")
	}
	return sb.String()
}

// ToastMessage is the body of the desktop notification.
func ToastMessage(header siga.NotificationHeader) string {
	return fmt.Sprintf("Time slots available:\n%s-%s", header.District, header.Local)
}

// Subject is the subject line of the e-mail notification.
func Subject(header siga.NotificationHeader) string {
	return fmt.Sprintf("%s: %s - %s", ToastTitle, header.Category, header.District)
}
