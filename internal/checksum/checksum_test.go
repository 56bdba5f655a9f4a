package checksum

import "testing"

func TestSum(t *testing.T) {
	got := Sum([]byte("abc"))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("Sum = %s, want %s", got, want)
	}
}

func TestETagQuoted(t *testing.T) {
	sum := Sum([]byte("abc"))
	got := ETag(sum)
	if got != `"`+sum+`"` {
		t.Errorf("ETag = %s", got)
	}
}
