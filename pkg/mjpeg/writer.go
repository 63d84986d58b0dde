package mjpeg

import (
	"net/http"
	"strconv"
)

const boundary = "frame"

// Writer sends every Write as one part of a multipart/x-mixed-replace stream
type Writer struct {
	w   http.ResponseWriter
	buf []byte
}

func NewWriter(w http.ResponseWriter) *Writer {
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+boundary)
	return &Writer{w: w, buf: []byte(partHeader)}
}

const partHeader = "--" + boundary + "\r\nContent-Type: image/jpeg\r\nContent-Length: "

func (w *Writer) Write(p []byte) (n int, err error) {
	w.buf = w.buf[:len(partHeader)]
	w.buf = strconv.AppendInt(w.buf, int64(len(p)), 10)
	w.buf = append(w.buf, "\r\n\r\n"...)
	w.buf = append(w.buf, p...)
	w.buf = append(w.buf, "\r\n"...)

	// part and its trailer in one write, some browsers show the previous image otherwise
	if _, err = w.w.Write(w.buf); err != nil {
		return 0, err
	}

	if f, ok := w.w.(http.Flusher); ok {
		f.Flush()
	}

	return len(p), nil
}
