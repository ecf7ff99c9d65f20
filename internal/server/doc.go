// Package server implements the line protocol of the scan-detect engine.
//
// A caller (the grading pipeline) drives one long-lived process over
// stdio: it sends one request per line and reads the answer up to a line
// holding the end marker.
//
// # Protocol
//
// On startup the server prints the configured layout size and mark
// diameter:
//
//	TX=210.00 TY=297.00 DIAM=4.00
//
// Each request is a verb followed by space-separated arguments. Numbers
// are parsed in the C locale; NaN and infinities are rejected. A trailing
// carriage return is stripped and blank lines are ignored. The response is
// zero or more plain lines, optional fault lines of the form
//
//	! TAG: message
//
// and the terminator
//
//	__END__
//
// A request that does not parse is echoed after ": " and answered with
// "! SYNERR: Syntax error."; the stream stays open. After a failed load
// every verb except load is refused with
// "! ERROR: not responding due to previous error.".
//
// # Verbs
//
// See Verbs for the list. A typical sheet:
//
//	load /scans/page-001.png
//	optim3 10,10 200,10 200,287 10,287
//	rotate180
//	rotateOK
//	id 12 1 3 2
//	mesure0 0.1 oval 40 46 100 104
//
// At end of input the session is closed and the report image, if any, is
// written.
//
// # Usage
//
//	cfg, err := config.Parse(os.Args[1:])
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv := server.New(cfg, log.Default())
//	if err := srv.Run(os.Stdin, os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
package server
