package metadata

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"yp/internal/subprocess"
)

// StoryboardFragment is one storyboard sprite sheet: a grid of Columns x
// Rows thumbnail cells, covering DurationCS of playback in total (so each
// cell covers DurationCS/(Columns*Rows)), per §4.C.
type StoryboardFragment struct {
	URL        string
	DurationCS int64
	Columns    int
	Rows       int
}

// StoryboardInfo is the full set of fragments for one entry's storyboard,
// in ascending time order.
type StoryboardInfo struct {
	Fragments []StoryboardFragment
}

// FrameSource answers "what does the frame look like at this playback
// position" regardless of how the underlying pixels were obtained —
// a still thumbnail, a storyboard sprite sheet, or decoded video frames.
// Construction is orthogonal to playback per §4.C; exactly one variant
// backs any given PlaybackSession.
type FrameSource interface {
	// FrameAt returns the image visible at positionCS, or an error if no
	// frame is available yet at that position.
	FrameAt(positionCS int64) (image.Image, error)
}

// StaticFrameSource always returns the same image — a plain thumbnail.
type StaticFrameSource struct {
	Image image.Image
}

func (s *StaticFrameSource) FrameAt(int64) (image.Image, error) {
	if s.Image == nil {
		return nil, fmt.Errorf("static frame source: no image loaded")
	}
	return s.Image, nil
}

// StoryboardFrameSource selects the storyboard fragment covering a given
// playback position, fetching and caching decoded frames lazily.
type StoryboardFrameSource struct {
	info    StoryboardInfo
	http    *resty.Client
	cache   map[int]image.Image
	offsets []int64 // cumulative end-of-fragment positions, ascending
}

// NewStoryboardFrameSource builds a frame source from storyboard
// metadata. http is shared with the thumbnail fetcher so both reuse one
// connection pool.
func NewStoryboardFrameSource(info StoryboardInfo, http *resty.Client) *StoryboardFrameSource {
	s := &StoryboardFrameSource{info: info, http: http, cache: make(map[int]image.Image)}
	var cum int64
	for _, f := range info.Fragments {
		cum += f.DurationCS
		s.offsets = append(s.offsets, cum)
	}
	return s
}

func (s *StoryboardFrameSource) fragmentIndex(positionCS int64) (int, error) {
	for i, end := range s.offsets {
		if positionCS < end {
			return i, nil
		}
	}
	if len(s.offsets) > 0 {
		return len(s.offsets) - 1, nil
	}
	return 0, fmt.Errorf("storyboard frame source: no fragments")
}

// subImager is satisfied by every concrete image type png.Decode returns
// (*image.NRGBA, *image.RGBA, *image.Paletted, ...); used to crop a sheet
// down to one cell without reimplementing pixel copying.
type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

func (s *StoryboardFrameSource) FrameAt(positionCS int64) (image.Image, error) {
	idx, err := s.fragmentIndex(positionCS)
	if err != nil {
		return nil, err
	}

	sheet, err := s.sheet(idx)
	if err != nil {
		return nil, err
	}

	frag := s.info.Fragments[idx]
	sheetStart := int64(0)
	if idx > 0 {
		sheetStart = s.offsets[idx-1]
	}
	localPositionCS := positionCS - sheetStart

	cellCount := frag.Columns * frag.Rows
	if cellCount <= 0 {
		return sheet, nil // malformed grid metadata: fall back to the whole sheet
	}
	cellDurationCS := frag.DurationCS / int64(cellCount)
	if cellDurationCS <= 0 {
		cellDurationCS = 1
	}
	cellIndex := int(localPositionCS / cellDurationCS)
	if cellIndex >= cellCount {
		cellIndex = cellCount - 1
	}

	cropper, ok := sheet.(subImager)
	if !ok {
		return sheet, nil // decoder returned a type we can't crop: show the full sheet
	}

	bounds := sheet.Bounds()
	cellW := bounds.Dx() / frag.Columns
	cellH := bounds.Dy() / frag.Rows
	col := cellIndex % frag.Columns
	row := cellIndex / frag.Columns

	origin := bounds.Min
	rect := image.Rect(
		origin.X+col*cellW, origin.Y+row*cellH,
		origin.X+(col+1)*cellW, origin.Y+(row+1)*cellH,
	)
	return cropper.SubImage(rect), nil
}

// sheet fetches and decodes (with caching) the full sprite sheet image
// for fragment idx.
func (s *StoryboardFrameSource) sheet(idx int) (image.Image, error) {
	if img, ok := s.cache[idx]; ok {
		return img, nil
	}

	frag := s.info.Fragments[idx]
	resp, err := s.http.R().Get(frag.URL)
	if err != nil {
		return nil, fmt.Errorf("storyboard fragment %d: %w", idx, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("storyboard fragment %d: status %d", idx, resp.StatusCode())
	}

	img, err := decodeFrame(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("storyboard fragment %d: decode: %w", idx, err)
	}
	s.cache[idx] = img
	return img, nil
}

// VideoFrameSource serves frames decoded from the source video at a
// fixed sample rate (0.5 fps, per §4.C), written as numbered PNGs to a
// temp directory that this source reads lazily as the loop consumes
// them.
type VideoFrameSource struct {
	dir         string
	sampleRate  float64 // frames per second, e.g. 0.5 => one frame every 2s
	cache       map[int]image.Image
}

// StartVideoFrameExtraction spawns a decoder to sample frames from
// streamURL at sampleRate frames/sec, writing numbered PNGs
// (frame-%05d.png) into a fresh temp directory. The decoder keeps
// running in the background via internal/subprocess; frames already on
// disk are immediately readable even while later ones are still being
// produced, adapted from the teacher's internal/encoder/ffmpeg.go
// buildArgs/Pipeline pattern (ffmpeg invoked as a managed subprocess with
// a fixed argument shape, not a one-shot exec.Command).
func StartVideoFrameExtraction(ctx context.Context, streamURL string, sampleRate float64) (*VideoFrameSource, error) {
	if sampleRate <= 0 {
		sampleRate = 0.5
	}
	dir, err := os.MkdirTemp("", "yp-frames-*")
	if err != nil {
		return nil, fmt.Errorf("video frame source: temp dir: %w", err)
	}

	args := []string{
		"-i", streamURL,
		"-vf", fmt.Sprintf("fps=%g", sampleRate),
		"-f", "image2",
		filepath.Join(dir, "frame-%05d.png"),
	}
	handle, err := subprocess.SpawnCapture(ctx, "ffmpeg", args...)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("video frame source: spawn ffmpeg: %w", err)
	}
	go func() {
		for range handle.Lines() {
			// ffmpeg's progress chatter goes to stderr normally; any stdout
			// lines here are discarded, matching the teacher's treatment of
			// decoder stdout as uninteresting for frame extraction.
		}
	}()

	return &VideoFrameSource{dir: dir, sampleRate: sampleRate, cache: make(map[int]image.Image)}, nil
}

func (v *VideoFrameSource) FrameAt(positionCS int64) (image.Image, error) {
	frameNum := int(float64(positionCS) / 100 * v.sampleRate)
	if frameNum < 1 {
		frameNum = 1
	}
	if img, ok := v.cache[frameNum]; ok {
		return img, nil
	}

	name, err := v.latestAvailableFrame(frameNum)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(v.dir, name))
	if err != nil {
		return nil, fmt.Errorf("video frame source: read %s: %w", name, err)
	}
	img, err := decodeFrame(data)
	if err != nil {
		return nil, fmt.Errorf("video frame source: decode %s: %w", name, err)
	}
	v.cache[frameNum] = img
	return img, nil
}

// latestAvailableFrame returns the highest-numbered frame file at or
// before wantFrame, since the decoder may not have produced wantFrame yet
// — we show the most recent frame available rather than erroring.
func (v *VideoFrameSource) latestAvailableFrame(wantFrame int) (string, error) {
	entries, err := os.ReadDir(v.dir)
	if err != nil {
		return "", fmt.Errorf("video frame source: read dir: %w", err)
	}

	var best string
	var bestNum int
	for _, e := range entries {
		n, ok := parseFrameNumber(e.Name())
		if !ok || n > wantFrame {
			continue
		}
		if n > bestNum {
			bestNum = n
			best = e.Name()
		}
	}
	if best == "" {
		return "", fmt.Errorf("video frame source: no frame available yet at or before %d", wantFrame)
	}
	return best, nil
}

func parseFrameNumber(name string) (int, bool) {
	const prefix, suffix = "frame-", ".png"
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return 0, false
	}
	n, err := strconv.Atoi(name[len(prefix) : len(name)-len(suffix)])
	if err != nil {
		return 0, false
	}
	return n, true
}

func decodeFrame(data []byte) (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return img, nil
}
