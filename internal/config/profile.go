// BYZRA ⸻ internal/config/profile.go
// lua profile overriding conversion defaults

package config

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
)

// search order for profile.lua
func ProfilePaths() []string {
	return []string{
		"config/profile.lua",
		"./profile.lua",
		filepath.Join(HomeDir(), "config", "profile.lua"),
	}
}

// loads the first profile found; a missing profile is not an error
func FindProfile() (map[string]string, string, error) {
	for _, path := range ProfilePaths() {
		if _, err := os.Stat(path); err == nil {
			profile, err := LoadProfile(path)
			return profile, path, err
		}
	}
	return nil, "", nil
}

// runs a profile script, which must return a table
func LoadProfile(profilePath string) (map[string]string, error) {
	data, err := os.ReadFile(profilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	L := lua.NewState()
	defer L.Close()

	if err := L.DoString(string(data)); err != nil {
		return nil, fmt.Errorf("failed to execute profile Lua: %w", err)
	}

	result := L.Get(-1)
	if result.Type() != lua.LTTable {
		return nil, fmt.Errorf("profile Lua must return a table")
	}

	// convert Lua table 2 Go map, numbers and booleans as text
	profile := make(map[string]string)
	lTable := result.(*lua.LTable)
	lTable.ForEach(func(k, v lua.LValue) {
		if k.Type() != lua.LTString {
			return
		}
		switch v.Type() {
		case lua.LTString, lua.LTNumber, lua.LTBool:
			profile[k.String()] = v.String()
		}
	})

	return profile, nil
}
