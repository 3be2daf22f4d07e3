package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// ErrUnavailable marks a video file that is missing or unreadable. The
// project keeps the entry's annotations and degrades it to
// not-annotatable instead of failing the whole load.
var ErrUnavailable = errors.New("video unavailable")

// Info describes a video stream as reported by ffprobe.
type Info struct {
	FrameCount int
	FPS        float64
	Width      int
	Height     int
}

// Lister reports the independently decodable frames of a video. The
// keyframe index is built from this once per video.
type Lister interface {
	ListKeyframes(ctx context.Context, path string) ([]int, error)
}

// Prober reports stream properties of a video.
type Prober interface {
	Probe(ctx context.Context, path string) (Info, error)
}

// FFmpegDecoder implements the decoder collaborator over the ffmpeg and
// ffprobe binaries. The core hands it a path and frame arithmetic; all
// pixel work stays on this side of the boundary.
type FFmpegDecoder struct {
	Path string
	info Info
}

// OpenDecoder probes path and returns a decoder bound to it.
func OpenDecoder(ctx context.Context, path string) (*FFmpegDecoder, error) {
	d := &FFmpegDecoder{Path: path}
	info, err := d.Probe(ctx, path)
	if err != nil {
		return nil, err
	}
	d.info = info
	return d, nil
}

func (d *FFmpegDecoder) Info() Info {
	return d.info
}

// FrameBytes returns the decoded RGBA size of one frame, used to budget
// the seek cache.
func (d *FFmpegDecoder) FrameBytes() int {
	return d.info.Width * d.info.Height * 4
}

func (d *FFmpegDecoder) Probe(ctx context.Context, path string) (Info, error) {
	if _, err := os.Stat(path); err != nil {
		return Info{}, fmt.Errorf("%w: %s", ErrUnavailable, path)
	}

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=width,height,r_frame_rate,nb_read_packets",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return Info{}, fmt.Errorf("%w: ffprobe: %v", ErrUnavailable, err)
	}

	lines := strings.Fields(strings.TrimSpace(string(out)))
	if len(lines) < 4 {
		return Info{}, fmt.Errorf("%w: unexpected ffprobe output: %q", ErrUnavailable, string(out))
	}

	var info Info
	info.Width, _ = strconv.Atoi(lines[0])
	info.Height, _ = strconv.Atoi(lines[1])
	info.FPS = parseRate(lines[2])
	info.FrameCount, _ = strconv.Atoi(lines[3])
	if info.Width <= 0 || info.Height <= 0 || info.FrameCount <= 0 {
		return Info{}, fmt.Errorf("%w: empty stream: %s", ErrUnavailable, path)
	}
	return info, nil
}

// ListKeyframes asks ffprobe for per-packet flags; the packet ordinal
// is the frame number, keyframes carry the K flag.
func (d *FFmpegDecoder) ListKeyframes(ctx context.Context, path string) ([]int, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "packet=flags",
		"-of", "csv=p=0",
		path,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffprobe keyframes: %v", err)
	}

	var keyframes []int
	for i, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if strings.Contains(line, "K") {
			keyframes = append(keyframes, i)
		}
	}
	return keyframes, nil
}

// DecodeForward decodes steps frames forward from a keyframe and
// returns the final frame as RGBA. ffmpeg decodes sequentially from the
// preceding keyframe either way; selecting by frame ordinal keeps the
// arithmetic identical to the seek index's resolution.
func (d *FFmpegDecoder) DecodeForward(ctx context.Context, fromKeyframe, steps int) (image.Image, error) {
	frame := fromKeyframe + steps

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-v", "error",
		"-i", d.Path,
		"-vf", fmt.Sprintf("select=eq(n\\,%d)", frame),
		"-vsync", "0",
		"-frames:v", "1",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-",
	)
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffmpeg decode frame %d: %v: %s", frame, err, errOut.String())
	}

	want := d.info.Width * d.info.Height * 4
	if out.Len() < want {
		return nil, fmt.Errorf("ffmpeg decode frame %d: short read (%d of %d bytes)", frame, out.Len(), want)
	}

	img := image.NewRGBA(image.Rect(0, 0, d.info.Width, d.info.Height))
	copy(img.Pix, out.Bytes()[:want])
	return img, nil
}

func parseRate(s string) float64 {
	// r_frame_rate comes as a fraction, e.g. "30000/1001".
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 == nil && err2 == nil && d != 0 {
			return n / d
		}
		return 0
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
