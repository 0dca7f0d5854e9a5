// Package profile loads compression session parameters from YAML files.
//
// A profile names every knob of a session:
//
//	packet_bits: 720
//	robustness: 2
//	send_mask_every: 16
//	uncompressed_every: 32
//	initial_mask: "ffff0000"
//
// Both ends of a link must use the same profile.
package profile

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mycophonic/primordium/fault"

	"github.com/mycophonic/pocketplus"
)

// Profile mirrors the YAML document. Omitted fields keep their zero value,
// which disables the corresponding trigger.
type Profile struct {
	PacketBits        int    `yaml:"packet_bits"`
	Robustness        int    `yaml:"robustness"`
	NewMaskEvery      int    `yaml:"new_mask_every"`
	SendMaskEvery     int    `yaml:"send_mask_every"`
	UncompressedEvery int    `yaml:"uncompressed_every"`
	InitialMask       string `yaml:"initial_mask"`
}

// Load reads and parses a profile file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Profiles are user-specified configuration files.
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	return Parse(data)
}

// Parse decodes a YAML profile document.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	return &p, nil
}

// Params converts the profile into validated session parameters, decoding
// the optional hex mask.
func (p *Profile) Params() (pocketplus.Params, error) {
	params := pocketplus.Params{
		PacketBits:        p.PacketBits,
		Robustness:        p.Robustness,
		NewMaskEvery:      p.NewMaskEvery,
		SendMaskEvery:     p.SendMaskEvery,
		UncompressedEvery: p.UncompressedEvery,
	}

	if p.InitialMask != "" {
		mask, err := hex.DecodeString(p.InitialMask)
		if err != nil {
			return pocketplus.Params{}, fmt.Errorf("%w: initial_mask: %w", pocketplus.ErrInvalidArgument, err)
		}

		params.InitialMask = mask
	}

	if err := params.Validate(); err != nil {
		return pocketplus.Params{}, err
	}

	return params, nil
}
