package remux

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"igfetch/pkg/config"
	errs "igfetch/pkg/errors"
	"igfetch/pkg/logger"
)

// fakeRunner stands in for ffmpeg: it checks its inputs and writes a fake output
type fakeRunner struct {
	mu     sync.Mutex
	calls  [][]string
	inputs map[string][]byte
	fail   error
	stderr string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args []string, stderr io.Writer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.inputs == nil {
		f.inputs = map[string][]byte{}
	}
	for i, a := range args {
		if a == "-i" {
			data, err := os.ReadFile(args[i+1])
			if err != nil {
				return err
			}
			f.inputs[args[i+1]] = data
		}
	}
	if f.fail != nil {
		io.WriteString(stderr, f.stderr)
		return f.fail
	}
	out := args[len(args)-1]
	return os.WriteFile(out, []byte("muxed"), 0644)
}

func tempFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "igfetch-*"))
	require.NoError(t, err)
	return matches
}

func TestBuildArgs(t *testing.T) {
	args := BuildArgs("v.mp4", "a.mp4", "out.mp4")
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "-i v.mp4 -i a.mp4")
	assert.Contains(t, joined, "-map 0:v:0 -map 1:a:0")
	assert.Contains(t, joined, "-c copy")
	assert.Equal(t, "out.mp4", args[len(args)-1])
}

func TestRemuxSuccess(t *testing.T) {
	tmp := t.TempDir()
	outDir := t.TempDir()
	runner := &fakeRunner{}
	m := New(config.RemuxConfig{FFmpegPath: "ffmpeg-test", TempDirectory: tmp}, logger.NewNopLogger(), WithRunner(runner))

	out := filepath.Join(outDir, "alice_C0abc.mp4")
	err := m.Remux(context.Background(), []byte("video-bytes"), []byte("audio-bytes"), out)
	require.NoError(t, err)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "muxed", string(got))

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "ffmpeg-test", runner.calls[0][0])

	var contents []string
	for _, data := range runner.inputs {
		contents = append(contents, string(data))
	}
	assert.ElementsMatch(t, []string{"video-bytes", "audio-bytes"}, contents)

	assert.Empty(t, tempFiles(t, tmp), "temp inputs must be removed")
	entries, _ := os.ReadDir(outDir)
	assert.Len(t, entries, 1, "only the final file remains")
}

func TestRemuxFailureCleansUp(t *testing.T) {
	tmp := t.TempDir()
	outDir := t.TempDir()
	runner := &fakeRunner{fail: errors.New("exit status 1"), stderr: "Invalid data found when processing input\n"}
	m := New(config.RemuxConfig{TempDirectory: tmp}, nil, WithRunner(runner))

	out := filepath.Join(outDir, "x.mp4")
	err := m.Remux(context.Background(), []byte("v"), []byte("a"), out)

	require.Error(t, err)
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.ErrorTypeRemux, e.Type)
	assert.Contains(t, e.Message, "Invalid data found")

	assert.Empty(t, tempFiles(t, tmp))
	assert.NoFileExists(t, out)
	entries, _ := os.ReadDir(outDir)
	assert.Empty(t, entries, "no part file left behind")
}

func TestRemuxUsesUniqueTempNames(t *testing.T) {
	tmp := t.TempDir()
	outDir := t.TempDir()
	runner := &fakeRunner{}
	m := New(config.RemuxConfig{TempDirectory: tmp}, nil, WithRunner(runner))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out := filepath.Join(outDir, "item_"+string(rune('a'+i))+".mp4")
			assert.NoError(t, m.Remux(context.Background(), []byte{byte(i)}, []byte{byte(i)}, out))
		}(i)
	}
	wg.Wait()

	assert.Len(t, runner.inputs, 16, "each operation gets its own pair of inputs")
	assert.Empty(t, tempFiles(t, tmp))
}

func TestRemuxWithRealFFmpegMissing(t *testing.T) {
	m := New(config.RemuxConfig{FFmpegPath: "igfetch-no-such-ffmpeg"}, nil)
	assert.Error(t, m.Available())

	err := m.Remux(context.Background(), []byte("v"), []byte("a"), filepath.Join(t.TempDir(), "o.mp4"))
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeRemux, errs.TypeOf(err))
	var execErr *exec.Error
	assert.ErrorAs(t, err, &execErr)
}
