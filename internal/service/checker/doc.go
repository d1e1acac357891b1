// Package checker reports the GPU toolchain present on the host.
//
// It queries the NVIDIA driver, the CUDA compiler, the cuDNN headers and the
// host C compiler, prints one line per component and fails when any of them
// is missing.
package checker
