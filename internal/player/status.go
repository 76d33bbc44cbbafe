package player

import (
	"regexp"
	"strconv"
)

// statusLineRE matches mpv's configured stdout status template
// ("Time: MM:SS / MM:SS"), per §6. The spec itself flags this as brittle;
// an implementer may parse mpv's structured property interface instead,
// but this mirrors the external interface as documented.
var statusLineRE = regexp.MustCompile(`Time:\s*(\d+):(\d{2})\s*/\s*(\d+):(\d{2})`)

// parseStatusLine parses one stdout line into (position, duration) in
// centiseconds. Returns ok=false on any non-match or malformed line —
// parse failures are logged by the caller and dropped, never fatal.
func parseStatusLine(line string) (positionCS, durationCS int64, ok bool) {
	m := statusLineRE.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}
	posMin, err1 := strconv.ParseInt(m[1], 10, 64)
	posSec, err2 := strconv.ParseInt(m[2], 10, 64)
	durMin, err3 := strconv.ParseInt(m[3], 10, 64)
	durSec, err4 := strconv.ParseInt(m[4], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return 0, 0, false
	}
	positionCS = (posMin*60 + posSec) * 100
	durationCS = (durMin*60 + durSec) * 100
	return positionCS, durationCS, true
}
