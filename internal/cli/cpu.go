package cli

import (
	"runtime"

	"golang.org/x/sys/cpu"

	"github.com/agbru/amixbench/pkg/report"
)

// DetectCPU describes the host for the report header: architecture, logical
// CPU count and the SIMD features that matter for the floating-point loops.
func DetectCPU() report.CPUInfo {
	info := report.CPUInfo{Arch: runtime.GOARCH, NumCPU: runtime.NumCPU()}
	add := func(ok bool, name string) {
		if ok {
			info.Features = append(info.Features, name)
		}
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		add(cpu.X86.HasSSE42, "sse4.2")
		add(cpu.X86.HasAVX, "avx")
		add(cpu.X86.HasAVX2, "avx2")
		add(cpu.X86.HasFMA, "fma")
		add(cpu.X86.HasAVX512F, "avx512f")
	case "arm64":
		add(cpu.ARM64.HasASIMD, "asimd")
		add(cpu.ARM64.HasFPHP, "fphp")
		add(cpu.ARM64.HasSVE, "sve")
	}
	return info
}
