package notify

import (
	"testing"

	"sigawatch/internal/siga"

	"github.com/stretchr/testify/require"
)

func testHeader() siga.NotificationHeader {
	return siga.NotificationHeader{
		Entity:      "E",
		Category:    "C",
		Subcategory: "S",
		Motive:      "M",
		District:    "D",
		Local:       "L",
	}
}

func TestBuildMessage(t *testing.T) {
	var slots siga.SlotTable
	slots.Add("G1", "01-01-2025 10:00")

	require.Equal(
		t,
		"E - C\nS\nM\nDistrito: D, Localidade: L\n\nG1\n01-01-2025 10:00\n",
		BuildMessage(testHeader(), &slots),
	)
}

func TestBuildMessageGroups(t *testing.T) {
	var slots siga.SlotTable
	slots.Add("Lisboa", "15-10-2024 09:30")
	slots.Add("district", "should not be listed")
	slots.Add("Porto", "16-10-2024 11:00")
	slots.Add("Lisboa", "17-10-2024 14:00")

	require.Equal(
		t,
		"E - C\nS\nM\nDistrito: D, Localidade: L\n\n"+
			"Lisboa\n15-10-2024 09:30\n17-10-2024 14:00\n"+
			"Porto\n16-10-2024 11:00\n",
		BuildMessage(testHeader(), &slots),
	)
}

func TestToastMessage(t *testing.T) {
	require.Equal(t, "Time slots available:\nD-L", ToastMessage(testHeader()))
	require.Equal(t, "SIGA: C - D", Subject(testHeader()))
}
