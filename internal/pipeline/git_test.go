package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestHeadCommit(t *testing.T) {
	loose := strings.Repeat("1", 40)
	packed := strings.Repeat("2", 40)

	tests := []struct {
		name    string
		files   map[string]string
		want    string
		wantErr string
	}{
		{
			name: "loose ref",
			files: map[string]string{
				".git/HEAD":              "ref: refs/heads/master\n",
				".git/refs/heads/master": loose + "\n",
			},
			want: loose,
		},
		{
			name: "packed ref",
			files: map[string]string{
				".git/HEAD": "ref: refs/heads/master\n",
				".git/packed-refs": "# pack-refs with: peeled fully-peeled sorted\n" +
					strings.Repeat("3", 40) + " refs/heads/dev\n" +
					packed + " refs/heads/master\n" +
					"^" + strings.Repeat("4", 40) + "\n",
			},
			want: packed,
		},
		{
			name: "loose ref wins over packed",
			files: map[string]string{
				".git/HEAD":              "ref: refs/heads/master\n",
				".git/refs/heads/master": loose + "\n",
				".git/packed-refs":       packed + " refs/heads/master\n",
			},
			want: loose,
		},
		{
			name:  "detached head",
			files: map[string]string{".git/HEAD": loose + "\n"},
			want:  loose,
		},
		{
			name: "gitdir file",
			files: map[string]string{
				".git":                        "gitdir: ../repo.git\n",
				"../repo.git/HEAD":            "ref: refs/heads/main\n",
				"../repo.git/refs/heads/main": loose,
			},
			want: loose,
		},
		{
			name:    "missing ref",
			files:   map[string]string{".git/HEAD": "ref: refs/heads/gone\n"},
			wantErr: "ref refs/heads/gone not found",
		},
		{
			name:    "malformed head",
			files:   map[string]string{".git/HEAD": "garbage\n"},
			wantErr: "malformed HEAD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Nest the root so "../repo.git" stays inside the temp dir.
			root := filepath.Join(t.TempDir(), "work")
			if err := os.MkdirAll(root, 0755); err != nil {
				t.Fatal(err)
			}
			writeFiles(t, root, tt.files)

			got, err := headCommit(root)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("headCommit() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("headCommit() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("headCommit() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHeadCommit_NoRepository(t *testing.T) {
	_, err := headCommit(t.TempDir())
	if !errors.Is(err, errNoRepository) {
		t.Errorf("headCommit() error = %v, want errNoRepository", err)
	}
}
