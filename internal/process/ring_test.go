package process

import (
	"reflect"
	"testing"
)

func TestConsoleRingWrapsAtCapacity(t *testing.T) {
	r := newConsoleRing(3)
	r.push("a")
	r.push("b")
	r.push("c")
	r.push("d") // overwrites "a"

	got := r.tail(10)
	want := []string{"b", "c", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tail = %v, want %v", got, want)
	}
}

func TestConsoleRingTailLimitsCount(t *testing.T) {
	r := newConsoleRing(10)
	for _, l := range []string{"1", "2", "3", "4"} {
		r.push(l)
	}
	got := r.tail(2)
	want := []string{"3", "4"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tail(2) = %v, want %v", got, want)
	}
}
