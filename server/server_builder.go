package server

// ServerBuilderOption is a functional option for configuring a Server.
type ServerBuilderOption func(s *server)

// WithAddr sets the listen address. Defaults to localhost:8001.
//
// Parameters:
//   - addr: host:port
//
// Returns:
//   - ServerBuilderOption: option function to apply
func WithAddr(addr string) ServerBuilderOption {
	return func(s *server) {
		s.addr = addr
	}
}

// WithDefaultName sets the asset path given to skybox requests without dest_path.
//
// Parameters:
//   - name: the relative path, e.g. "skybox.qoi"
//
// Returns:
//   - ServerBuilderOption: option function to apply
func WithDefaultName(name string) ServerBuilderOption {
	return func(s *server) {
		s.defaultName = name
	}
}

// WithCommand sets the command line reported by /job/attach.json. Defaults to os.Args.
//
// Parameters:
//   - command: the command line
//
// Returns:
//   - ServerBuilderOption: option function to apply
func WithCommand(command string) ServerBuilderOption {
	return func(s *server) {
		s.command = command
	}
}

// WithStreamBuffer sets how many results a websocket listener may fall behind before it has to
// catch up from the store.
//
// Parameters:
//   - n: the per-listener buffer, minimum 1
//
// Returns:
//   - ServerBuilderOption: option function to apply
func WithStreamBuffer(n int) ServerBuilderOption {
	return func(s *server) {
		s.streamBuf = max(n, 1)
	}
}
