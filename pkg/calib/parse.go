package calib

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Parse reads an INI like calibration file:
//
//	; comment
//	[LEFT_CAM_HD]
//	fx = 699.41
//	k1 = -0.17
//
// Values are int when the whole value is a base 10 integer, float otherwise.
// Anything else is logged and skipped, lines without '=' are ignored.
func Parse(r io.Reader) (*Data, error) {
	d := &Data{}

	var section string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.Trim(scanner.Text(), " \t\r")

		if line == "" || line[0] == ';' || line[0] == '#' {
			continue
		}

		if line[0] == '[' && line[len(line)-1] == ']' {
			section = line[1 : len(line)-1]
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		key = strings.Trim(key, " \t")
		value = strings.Trim(value, " \t")

		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			d.set(section, key, IntValue(i))
		} else if f, err := strconv.ParseFloat(value, 64); err == nil {
			d.set(section, key, FloatValue(f))
		} else {
			log.Warn().Str("section", section).Str("key", key).Str("value", value).
				Msg("[calib] unsupported value")
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	if d.Len() == 0 {
		return nil, fmt.Errorf("%w: no entries", ErrParse)
	}

	return d, nil
}
