package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/plexc/plan"
)

var update = flag.Bool("update", false, "rewrite the golden files in testdata")

// TestGoldenFiles verifies that known plans produce expected digests.
// A missing golden file is a failure; run with -update to regenerate
// after an intentional format change (and bump Version).
func TestGoldenFiles(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{
			name: "assignment",
			src:  layoutA,
		},
		{
			name: "do_loop",
			src: `<PlexilPlan>
  <Node><NodeId>Loop</NodeId>
    <Do>
      <Action><Node><NodeId>Body</NodeId><Sequence/></Node></Action>
      <Condition><LT><IntegerVariable>n</IntegerVariable><IntegerValue>3</IntegerValue></LT></Condition>
    </Do>
  </Node>
</PlexilPlan>`,
		},
		{
			name: "on_command",
			src: `<PlexilPlan>
  <Node><NodeId>Listen</NodeId>
    <OnCommand>
      <Parameters><DeclareVariable><Name>speed</Name><Type>Real</Type></DeclareVariable></Parameters>
      <Name><StringValue>Move</StringValue></Name>
      <Node><NodeId>Handle</NodeId><Sequence/></Node>
    </OnCommand>
  </Node>
</PlexilPlan>`,
		},
	}

	goldenDir := filepath.Join("testdata")

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			el, err := plan.ParseString(tc.src)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}

			data := Serialize(Normalize(el))
			h := sha256.Sum256(data)

			serializedHex := hex.EncodeToString(data)
			hashHex := hex.EncodeToString(h[:])
			if hashHex != Hex(el) {
				t.Fatalf("Hex disagrees with Serialize+Normalize")
			}

			goldenPath := filepath.Join(goldenDir, tc.name+".golden")
			if *update {
				content := serializedHex + "\n" + hashHex + "\n"
				if err := os.WriteFile(goldenPath, []byte(content), 0o644); err != nil {
					t.Fatalf("write golden file: %v", err)
				}
				t.Logf("updated golden file: %s", goldenPath)
				return
			}
			expected, err := os.ReadFile(goldenPath)
			if err != nil {
				t.Fatalf("read golden file: %v (run with -update to create it)", err)
			}

			lines := strings.Split(strings.TrimSpace(string(expected)), "\n")
			if len(lines) != 2 {
				t.Fatalf("golden file %s: expected 2 lines, got %d", goldenPath, len(lines))
			}

			if serializedHex != lines[0] {
				t.Errorf("serialized bytes mismatch:\n  got:  %s\n  want: %s", serializedHex, lines[0])
			}
			if hashHex != lines[1] {
				t.Errorf("hash mismatch:\n  got:  %s\n  want: %s", hashHex, lines[1])
			}
		})
	}
}
