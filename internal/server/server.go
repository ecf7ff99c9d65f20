package server

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/ironsheep/scan-detect/internal/config"
	"github.com/ironsheep/scan-detect/internal/session"
)

// EndMarker terminates the response to every request.
const EndMarker = "__END__"

// Server reads commands line by line and answers on its output.
type Server struct {
	cfg     config.Config
	session *session.Session
	logger  *log.Logger
}

// New creates a server with a fresh session.
func New(cfg config.Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		cfg:     cfg,
		session: session.New(cfg.SessionOptions(logger)),
		logger:  logger,
	}
}

// Session returns the server's session.
func (s *Server) Session() *session.Session {
	return s.session
}

// Run processes commands from r until end of input, writing responses to
// w. Each response ends with EndMarker. At end of input the session is
// closed and its final lines written.
func (s *Server) Run(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for long paths and annotations
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	out := bufio.NewWriter(w)
	d := s.cfg.Detection
	fmt.Fprintf(out, "TX=%.2f TY=%.2f DIAM=%.2f\n", d.LayoutWidth, d.LayoutHeight, d.MarkDiameter)
	if err := out.Flush(); err != nil {
		return fmt.Errorf("write error: %w", err)
	}

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		reply := s.handleLine(line)
		if err := writeReply(out, reply, true); err != nil {
			return err
		}
	}

	if err := writeReply(out, s.session.Close(), false); err != nil {
		return err
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}
	return nil
}

func writeReply(out *bufio.Writer, reply *session.Reply, end bool) error {
	for _, l := range reply.Lines {
		out.WriteString(l)
		out.WriteByte('\n')
	}
	if end {
		out.WriteString(EndMarker)
		out.WriteByte('\n')
	}
	if err := out.Flush(); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	return nil
}
