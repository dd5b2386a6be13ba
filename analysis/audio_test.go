package analysis

import (
	"math"
	"os"
	"testing"

	"github.com/mixdoctor/mixdoctor/logging"
)

func TestMain(m *testing.M) {
	logging.SetGlobalLogger(&logging.NoOpLogger{})
	os.Exit(m.Run())
}

func genSine(freq, sampleRate float64, n int) []float64 {
	signal := make([]float64, n)
	for i := 0; i < n; i++ {
		signal[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}
	return signal
}

func invert(signal []float64) []float64 {
	out := make([]float64, len(signal))
	for i, s := range signal {
		out[i] = -s
	}
	return out
}

func TestLoaderStereo(t *testing.T) {
	left := []float64{0.1, 0.2, 0.3}
	right := []float64{-0.1, -0.2, -0.3}

	processed, err := NewLoader().Load(&DecodedBuffer{
		Channels:   [][]float64{left, right},
		SampleRate: 44100,
		FrameCount: 3,
	})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if processed.FrameCount != 3 || len(processed.Left) != 3 || len(processed.Right) != 3 {
		t.Fatalf("unexpected buffer sizes: frames=%d left=%d right=%d",
			processed.FrameCount, len(processed.Left), len(processed.Right))
	}
	for i := range left {
		if processed.Left[i] != left[i] || processed.Right[i] != right[i] {
			t.Fatalf("sample %d not copied correctly", i)
		}
	}
}

func TestLoaderMonoDuplicatesChannel(t *testing.T) {
	mono := []float64{0.5, -0.5, 0.25}

	processed, err := NewLoader().Load(&DecodedBuffer{
		Channels:   [][]float64{mono},
		SampleRate: 48000,
		FrameCount: 3,
	})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	for i := range mono {
		if processed.Left[i] != mono[i] {
			t.Fatalf("left[%d] = %v, want %v", i, processed.Left[i], mono[i])
		}
		if processed.Right[i] != processed.Left[i] {
			t.Fatalf("right[%d] = %v, want duplicate of left", i, processed.Right[i])
		}
	}

	// The right channel must be a copy, not an alias
	processed.Right[0] = 99
	if processed.Left[0] == 99 {
		t.Fatal("right channel aliases left channel")
	}
}

func TestLoaderErrors(t *testing.T) {
	tests := []struct {
		name string
		buf  *DecodedBuffer
		kind ErrorKind
	}{
		{
			name: "no_channels",
			buf:  &DecodedBuffer{Channels: [][]float64{}, SampleRate: 44100},
			kind: ErrInvalidChannelCount,
		},
		{
			name: "nil_buffer",
			buf:  nil,
			kind: ErrInvalidChannelCount,
		},
		{
			name: "frame_count_exceeds_samples",
			buf: &DecodedBuffer{
				Channels:   [][]float64{{0.1, 0.2}},
				SampleRate: 44100,
				FrameCount: 10,
			},
			kind: ErrBufferAllocationFailed,
		},
		{
			name: "negative_frame_count",
			buf: &DecodedBuffer{
				Channels:   [][]float64{{0.1, 0.2}},
				SampleRate: 44100,
				FrameCount: -1,
			},
			kind: ErrBufferAllocationFailed,
		},
		{
			name: "short_right_channel",
			buf: &DecodedBuffer{
				Channels:   [][]float64{{0.1, 0.2, 0.3}, {0.1}},
				SampleRate: 44100,
				FrameCount: 3,
			},
			kind: ErrBufferAllocationFailed,
		},
	}

	loader := NewLoader()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.Load(tt.buf)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if KindOf(err) != tt.kind {
				t.Fatalf("error kind = %v, want %v", KindOf(err), tt.kind)
			}
		})
	}
}

func TestDecomposeReconstruction(t *testing.T) {
	left := genSine(440, 44100, 2048)
	right := genSine(550, 44100, 2048)

	ms, err := Decompose(left, right)
	if err != nil {
		t.Fatalf("Decompose returned error: %v", err)
	}

	const tolerance = 1e-12
	for i := range left {
		if math.Abs(ms.Mid[i]+ms.Side[i]-left[i]) > tolerance {
			t.Fatalf("mid[%d]+side[%d] = %v, want left %v", i, i, ms.Mid[i]+ms.Side[i], left[i])
		}
		if math.Abs(ms.Mid[i]-ms.Side[i]-right[i]) > tolerance {
			t.Fatalf("mid[%d]-side[%d] = %v, want right %v", i, i, ms.Mid[i]-ms.Side[i], right[i])
		}
	}
}

func TestDecomposeLengthMismatch(t *testing.T) {
	_, err := Decompose([]float64{1, 2, 3}, []float64{1, 2})
	if err == nil {
		t.Fatal("expected error for mismatched lengths")
	}
	if KindOf(err) != ErrChannelLengthMismatch {
		t.Fatalf("error kind = %v, want %v", KindOf(err), ErrChannelLengthMismatch)
	}
}
