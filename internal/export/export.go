// Package export evaluates a movie frame by frame and encodes it to a
// video file through ffmpeg.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/director/internal/audio"
	"github.com/ivlev/director/internal/config"
	"github.com/ivlev/director/internal/director"
	"github.com/ivlev/director/internal/render"
	"github.com/ivlev/director/internal/system"
)

// Exporter drives the frame loop: resolved trees come from the director,
// pixels from the renderer, and encoded video from an ffmpeg child fed raw
// RGBA over stdin. Frames are always produced in strictly increasing
// order; there is no reordering stage.
type Exporter struct {
	Director *director.Director
	Renderer render.Renderer
	Config   *config.Config
}

// New creates an exporter.
func New(d *director.Director, r render.Renderer, cfg *config.Config) *Exporter {
	return &Exporter{Director: d, Renderer: r, Config: cfg}
}

// Run exports the whole movie to Config.OutputVideo. Cancellation is
// cooperative: ctx is checked between frames, and a frame in flight always
// completes before the export stops.
func (e *Exporter) Run(ctx context.Context) error {
	startTime := time.Now()

	duration := e.Director.Duration()
	totalFrames := int(math.Ceil(duration * float64(e.Config.FPS)))
	if totalFrames == 0 {
		return fmt.Errorf("movie has no scenes to export")
	}

	tempDir, err := os.MkdirTemp("", "director_")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tempDir)

	fmt.Printf("[*] Exporting %d frames (%.2fs @ %d FPS, %dx%d)\n",
		totalFrames, duration, e.Config.FPS, e.Config.Width, e.Config.Height)

	videoPath := filepath.Join(tempDir, "video.mp4")
	renderStart := time.Now()
	if err := e.encodeVideo(ctx, videoPath, totalFrames); err != nil {
		return err
	}
	renderTime := time.Since(renderStart)

	muxStart := time.Now()
	if err := e.mux(ctx, videoPath, duration, tempDir); err != nil {
		return err
	}

	if e.Config.ShowStats {
		total := time.Since(startTime)
		fmt.Printf(
			"--- [PERFORMANCE REPORT] ---\n"+
				"Build: %s\n"+
				"Total Time: %.2fs\n"+
				"Render+Encode: %.2fs\n"+
				"Mux: %.2fs\n"+
				"Effective FPS: %.2f\n"+
				"----------------------------\n",
			e.Config.BuildVersion, total.Seconds(), renderTime.Seconds(),
			time.Since(muxStart).Seconds(), float64(totalFrames)/total.Seconds(),
		)
	}
	return nil
}

// encodeVideo runs the ffmpeg video pass: one child process consuming raw
// RGBA frames over stdin.
func (e *Exporter) encodeVideo(ctx context.Context, videoPath string, totalFrames int) error {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", e.Config.Width, e.Config.Height),
		"-framerate", fmt.Sprintf("%d", e.Config.FPS),
		"-i", "-",
		"-pix_fmt", "yuv420p",
		"-c:v", e.Config.VideoEncoder,
	}
	args = append(args, qualityArgs(e.Config.VideoEncoder, e.Config.Quality)...)
	args = append(args, videoPath)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stdin.Close()
		return e.renderFrames(gctx, stdin, totalFrames)
	})
	g.Go(func() error {
		if err := cmd.Wait(); err != nil {
			return fmt.Errorf("ffmpeg wait error: %w\nLog: %s", err, out.String())
		}
		return nil
	})
	return g.Wait()
}

// renderFrames evaluates trees sequentially (binding smoothing state
// follows the movie clock), fans rasterization out across Config.Workers
// goroutines, and writes raw frames to w in strictly increasing order.
// Cancellation is cooperative: checked between frames, never mid-frame.
func (e *Exporter) renderFrames(ctx context.Context, w io.Writer, totalFrames int) error {
	workers := e.Config.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > totalFrames {
		workers = totalFrames
	}

	type job struct {
		index int
		tree  *render.Tree
	}
	type result struct {
		index int
		frame *image.RGBA
	}

	jobs := make(chan job, workers)
	results := make(chan result, workers)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		fps := float64(e.Config.FPS)
		for i := 0; i < totalFrames; i++ {
			if err := gctx.Err(); err != nil {
				return err
			}
			t := float64(i) / fps
			tree, err := e.Director.RenderTree(t)
			if err != nil {
				return fmt.Errorf("frame %d (%.3fs): %w", i, t, err)
			}
			select {
			case jobs <- job{index: i, tree: tree}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var renderers sync.WaitGroup
	for n := 0; n < workers; n++ {
		renderers.Add(1)
		g.Go(func() error {
			defer renderers.Done()
			for j := range jobs {
				frame, err := e.Renderer.RenderFrame(j.tree)
				if err != nil {
					return fmt.Errorf("frame %d: %w", j.index, err)
				}
				select {
				case results <- result{index: j.index, frame: frame}:
				case <-gctx.Done():
					system.PutImage(frame)
					return gctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		renderers.Wait()
		close(results)
	}()

	// The writer restores frame order; out-of-order frames wait in pending.
	g.Go(func() error {
		pending := make(map[int]*image.RGBA)
		defer func() {
			for _, frame := range pending {
				system.PutImage(frame)
			}
		}()

		next := 0
		for res := range results {
			pending[res.index] = res.frame
			for {
				frame, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				werr := writeRawRGBA(w, frame)
				system.PutImage(frame)
				if werr != nil {
					return fmt.Errorf("frame %d: write error: %w", next, werr)
				}
				next++
				if next%(e.Config.FPS*5) == 0 {
					fmt.Printf("[>] Frame %d/%d\n", next, totalFrames)
				}
			}
		}
		return nil
	})

	return g.Wait()
}

// mux runs the final ffmpeg pass, attaching the mixed audio when the movie
// has any tracks.
func (e *Exporter) mux(ctx context.Context, videoPath string, duration float64, tempDir string) error {
	if e.Director.TrackCount() == 0 {
		cmd := exec.CommandContext(ctx, "ffmpeg", "-y", "-i", videoPath, "-c", "copy", e.Config.OutputVideo)
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("ffmpeg copy error: %v, output: %s", err, string(out))
		}
		return nil
	}

	audioPath := filepath.Join(tempDir, "audio.wav")
	if err := e.writeAudio(audioPath, duration); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		e.Config.OutputVideo,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg mux error: %v, output: %s", err, string(out))
	}
	return nil
}

func (e *Exporter) writeAudio(path string, duration float64) error {
	frames := int(math.Ceil(duration * float64(e.Config.SampleRate)))
	samples, err := e.Director.MixAudio(0, frames)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return audio.EncodeWAV(f, samples, e.Config.SampleRate)
}

func qualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox does not reliably support -q:v; use a bitrate.
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default: // libx264
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(bounds)
		draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}
