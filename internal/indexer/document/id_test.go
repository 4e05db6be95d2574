package document

import (
	"bytes"
	"testing"
)

func TestBytesSortLikeNumbers(t *testing.T) {
	ids := []ID{0, 1, 255, 256, 1 << 40}
	for i := 1; i < len(ids); i++ {
		if bytes.Compare(ids[i-1].Bytes(), ids[i].Bytes()) >= 0 {
			t.Errorf("%d does not sort before %d", ids[i-1], ids[i])
		}
	}
}

func TestParseID(t *testing.T) {
	id, err := ParseID("18446744073709551615")
	if err != nil || id != ID(^uint64(0)) {
		t.Errorf("ParseID(max) = %d, %v", id, err)
	}
	for _, bad := range []string{"", "-1", "7a", "1.5"} {
		if _, err := ParseID(bad); err == nil {
			t.Errorf("ParseID(%q) succeeded", bad)
		}
	}
}
