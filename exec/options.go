package exec

import (
	"context"
	"os"
	"sort"
	"time"
)

// settings holds the configuration for one command invocation.
type settings struct {
	ctx        context.Context
	env        map[string]string
	dir        string
	timeout    time.Duration
	inheritEnv bool
}

func newSettings() settings {
	return settings{
		ctx: context.Background(),
		env: make(map[string]string),
	}
}

// clone returns a deep copy so derived executors never share the env map.
func (s settings) clone() settings {
	out := s
	out.env = make(map[string]string, len(s.env))
	for k, v := range s.env {
		out.env[k] = v
	}
	return out
}

func (s *settings) addEnv(env map[string]string) {
	if s.env == nil {
		s.env = make(map[string]string, len(env))
	}
	for k, v := range env {
		s.env[k] = v
	}
}

// environ builds the process environment. A nil result makes os/exec inherit
// the parent environment, so an explicit empty slice is returned when
// inheritance is off and no variables were set.
func (s settings) environ() []string {
	var env []string
	if s.inheritEnv {
		env = os.Environ()
	} else {
		env = []string{}
	}

	keys := make([]string, 0, len(s.env))
	for k := range s.env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		env = append(env, k+"="+s.env[k])
	}
	return env
}
