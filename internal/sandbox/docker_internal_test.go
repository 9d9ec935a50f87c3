package sandbox

import "testing"

func TestDemuxOutput(t *testing.T) {
	// Two frames: "out\n" on stdout, "err\n" on stderr.
	data := []byte{
		1, 0, 0, 0, 0, 0, 0, 4, 'o', 'u', 't', '\n',
		2, 0, 0, 0, 0, 0, 0, 4, 'e', 'r', 'r', '\n',
	}

	stdout, stderr := demuxOutput(data)
	if stdout != "out\n" {
		t.Errorf("stdout = %q; want %q", stdout, "out\n")
	}
	if stderr != "err\n" {
		t.Errorf("stderr = %q; want %q", stderr, "err\n")
	}
}

func TestDemuxOutput_TruncatedFrame(t *testing.T) {
	// Header claims 100 bytes but only 3 follow.
	data := []byte{1, 0, 0, 0, 0, 0, 0, 100, 'a', 'b', 'c'}

	stdout, stderr := demuxOutput(data)
	if stdout != "abc" {
		t.Errorf("stdout = %q; want %q", stdout, "abc")
	}
	if stderr != "" {
		t.Errorf("stderr = %q; want empty", stderr)
	}
}

func TestLimitedBuffer(t *testing.T) {
	b := newLimitedBuffer(4)

	n, err := b.Write([]byte("abcdef"))
	if err != nil || n != 6 {
		t.Fatalf("Write() = (%d, %v); want (6, nil)", n, err)
	}
	got := b.String()
	if got[:4] != "abcd" {
		t.Errorf("String() = %q; want prefix %q", got, "abcd")
	}
	if !b.truncated {
		t.Error("truncated = false; want true")
	}
}
