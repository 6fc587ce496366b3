package main

import (
	"os"

	"github.com/BurntSushi/toml"

	"lip/vm"
)

// fileConfig is the optional lip.toml shape: VM stack capacities and an
// arena chunk size (decoded but not applied to any arena), grounded on lookbusy1344-arm_emulator's
// config.Config pattern (a struct decoded with BurntSushi/toml, defaults
// filled in before decoding so a missing file or a partial file both
// behave sensibly).
type fileConfig struct {
	VM struct {
		OperandStack int `toml:"operand_stack"`
		CallStack    int `toml:"call_stack"`
		EnvStack     int `toml:"environment_stack"`
	} `toml:"vm"`
	Arena struct {
		ChunkSize int `toml:"chunk_size"`
	} `toml:"arena"`
}

// loadVMConfig reads the TOML file at path if present, falling back to
// vm.DefaultConfig for any field it doesn't set.
func loadVMConfig(path string) vm.Config {
	cfg := fileConfig{}
	cfg.VM.OperandStack = vm.DefaultConfig.OperandCap
	cfg.VM.CallStack = vm.DefaultConfig.CallCap
	cfg.VM.EnvStack = vm.DefaultConfig.EnvCap

	if _, err := os.Stat(path); err == nil {
		// A decode error is discarded and reported nowhere; fields the
		// decoder did not set keep their defaults.
		_, _ = toml.DecodeFile(path, &cfg)
	}

	return vm.Config{
		OperandCap: cfg.VM.OperandStack,
		CallCap:    cfg.VM.CallStack,
		EnvCap:     cfg.VM.EnvStack,
	}
}
