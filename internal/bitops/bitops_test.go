package bitops

import "testing"

func TestAssertMonotonicAllowsNonDecreasing(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("AssertMonotonic(2, 2) should not panic, got %v", r)
		}
	}()
	AssertMonotonic(2, 2)
	AssertMonotonic(2, 3)
}

func TestAssertMonotonicPanicsOnShrink(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("AssertMonotonic(3, 2) should panic")
		}
	}()
	AssertMonotonic(3, 2)
}
