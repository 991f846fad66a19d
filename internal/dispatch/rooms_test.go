package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomName_CanonicalizesInput(t *testing.T) {
	assert.Equal(t, "alerts:california:weather", RoomName("California", "WEATHER"))
	assert.Equal(t, "alerts:california:weather", RoomName("  california ", "weather"))
	assert.Equal(t, RoomName("Oregon", "Fire"), RoomName("OREGON", "fire"))
}

func TestCanonicalSet_DedupesPreservingOrder(t *testing.T) {
	got := canonicalSet([]string{"California", " oregon", "CALIFORNIA", "", "Nevada"})
	assert.Equal(t, []string{"california", "oregon", "nevada"}, got)
}
