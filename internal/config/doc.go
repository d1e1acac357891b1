// Package config defines runtime settings for the installer and provides
// helpers to load them (YAML file, CUDA_INSTALLER_* environment variables
// and built-in defaults, in that order of precedence) and to save them back
// as YAML.
package config
