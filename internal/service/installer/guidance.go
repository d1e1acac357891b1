package installer

import (
	"strings"

	"github.com/oshokin/cuda-installer/internal/domain/bundle"
)

const (
	libdeviceError = "ERROR: libdevice not found at ./libdevice.10.bc"
	libdeviceFix   = "export XLA_FLAGS=--xla_gpu_cuda_data_dir=/opt/cuda"
)

type guidanceSection struct {
	title string
	lines []string
}

// guidance returns the notes shown after a successful install.
func guidance(b *bundle.Bundle, pinFile string) []guidanceSection {
	return []guidanceSection{
		{
			title: "To prevent the system from updating the packages, add the following to " + pinFile,
			lines: []string{"IgnorePkg = " + strings.Join(b.Identifiers(), " ")},
		},
		{
			title: "Common error: " + libdeviceError,
			lines: []string{"To fix this error, run the following command:", libdeviceFix},
		},
	}
}
