package system

import (
	"log"
	"os/exec"
	"runtime"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/v3/mem"
)

// InitResourceLimits raises the open-file limit so long exports with many
// assets and ffmpeg pipes do not run out of descriptors.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Printf("[!] Failed to read file limit: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Printf("[!] Failed to raise file limit: %v", err)
	}
}

// Workers picks a render worker count: one per CPU, capped so that the
// frame buffers in flight fit comfortably in available memory.
func Workers(width, height int) int {
	workers := runtime.NumCPU()

	vm, err := mem.VirtualMemory()
	if err != nil {
		return workers
	}

	// RGBA frame plus encoder-side copies.
	perWorker := uint64(width*height*4) * 3
	if perWorker == 0 {
		return workers
	}

	// Leave half of available memory for ffmpeg and asset caches.
	budget := vm.Available / 2
	byMem := int(budget / perWorker)
	if byMem < 1 {
		byMem = 1
	}
	if byMem < workers {
		workers = byMem
	}
	return workers
}

// GetBestH264Encoder probes ffmpeg for hardware H.264 encoders and falls
// back to libx264.
func GetBestH264Encoder() string {
	candidates := []string{"h264_videotoolbox", "h264_nvenc"}

	out, err := exec.Command("ffmpeg", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	for _, name := range candidates {
		if strings.Contains(string(out), name) {
			return name
		}
	}
	return "libx264"
}
