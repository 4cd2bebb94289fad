package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

var (
	cmds     = []string{"echo foo", "put bar", "put lorem", "echo bar"}
	searches = []struct {
		upto      int
		prefix    string
		wantedCmd Cmd
		wantedErr error
	}{
		{5, "echo", Cmd{"echo bar", 4}, nil},
		{5, "put", Cmd{"put lorem", 3}, nil},
		{4, "echo", Cmd{"echo foo", 1}, nil},
		{3, "f", Cmd{}, ErrNoMatchingCmd},
		{1, "put", Cmd{}, ErrNoMatchingCmd},
	}
)

func TestCmd(t *testing.T) {
	st, cleanup := MustTempStore()
	defer cleanup()

	startSeq, err := st.NextCmdSeq()
	if startSeq != 1 || err != nil {
		t.Errorf("NextCmdSeq() -> (%v, %v), want (1, nil)", startSeq, err)
	}

	for i, cmd := range cmds {
		wantSeq := startSeq + i
		seq, err := st.AddCmd(cmd)
		if seq != wantSeq || err != nil {
			t.Errorf("AddCmd(%q) -> (%v, %v), want (%v, nil)", cmd, seq, err, wantSeq)
		}
	}

	endSeq, err := st.NextCmdSeq()
	wantedEndSeq := startSeq + len(cmds)
	if endSeq != wantedEndSeq || err != nil {
		t.Errorf("NextCmdSeq() -> (%v, %v), want (%v, nil)", endSeq, err, wantedEndSeq)
	}

	for _, tt := range searches {
		cmd, err := st.PrevCmd(tt.upto, tt.prefix)
		if cmd != tt.wantedCmd || err != tt.wantedErr {
			t.Errorf("PrevCmd(%v, %q) -> (%v, %v), want (%v, %v)",
				tt.upto, tt.prefix, cmd, err, tt.wantedCmd, tt.wantedErr)
		}
	}

	wantRange := []Cmd{{"put bar", 2}, {"put lorem", 3}}
	gotRange, err := st.CmdsWithSeq(2, 4)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(wantRange, gotRange); diff != "" {
		t.Errorf("CmdsWithSeq(2, 4) mismatch (-want +got):\n%s", diff)
	}
}
