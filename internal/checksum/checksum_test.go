package checksum

import "testing"

func TestSum(t *testing.T) {
	// sha256("") is a well-known constant.
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum(nil); got != empty {
		t.Errorf("Sum(nil) = %s", got)
	}
	if Sum([]byte("a")) == Sum([]byte("b")) {
		t.Error("distinct inputs collided")
	}
}

func TestChanged(t *testing.T) {
	data := []byte("[[rules]]")
	if !Changed("", data) {
		t.Error("empty previous sum must count as changed")
	}
	if Changed(Sum(data), data) {
		t.Error("same bytes reported as changed")
	}
	if !Changed(Sum(data), []byte("[[notes]]")) {
		t.Error("different bytes not reported")
	}
}
