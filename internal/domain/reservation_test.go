package domain

import "testing"

func TestTimeSlots(t *testing.T) {
	slots := TimeSlots()

	if len(slots) != 20 {
		t.Fatalf("expected 20 half-hour slots, got %d", len(slots))
	}
	if slots[0] != "09:00" {
		t.Errorf("expected the first slot to be 09:00, got %s", slots[0])
	}
	if slots[len(slots)-1] != "18:30" {
		t.Errorf("expected the last slot to be 18:30, got %s", slots[len(slots)-1])
	}

	for i := 1; i < len(slots); i++ {
		if slots[i-1] >= slots[i] {
			t.Errorf("slots must be strictly ascending: %s before %s", slots[i-1], slots[i])
		}
	}
}

func TestIsValidTimeSlot(t *testing.T) {
	for _, slot := range []string{"09:00", "12:30", "18:30"} {
		if !IsValidTimeSlot(slot) {
			t.Errorf("expected %s to be a valid slot", slot)
		}
	}
	for _, slot := range []string{"08:30", "19:00", "10:15", ""} {
		if IsValidTimeSlot(slot) {
			t.Errorf("expected %s to be rejected", slot)
		}
	}
}

func TestReservationPatchIsEmpty(t *testing.T) {
	if !(&ReservationPatch{}).IsEmpty() {
		t.Error("expected a zero patch to be empty")
	}
	if !(*ReservationPatch)(nil).IsEmpty() {
		t.Error("expected a nil patch to be empty")
	}

	content := "cut"
	if (&ReservationPatch{Content: &content}).IsEmpty() {
		t.Error("expected a patch with content to be non-empty")
	}
}
