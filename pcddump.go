package simlidar

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/rdk/pointcloud"
)

// pcdTimeFormat is the timestamp format used in dumped capture filenames.
const pcdTimeFormat = "2006-01-02T15:04:05.0000Z"

// dumpPCD saves the trimmed points of one capture as a binary PCD file with a
// timestamped name under the given directory.
func dumpPCD(dir string, points []r3.Vector) error {
	pc := pointcloud.NewWithPrealloc(len(points))
	for _, p := range points {
		if err := pc.Set(p, nil); err != nil {
			return errors.Wrap(err, "building point cloud")
		}
	}

	buf := new(bytes.Buffer)
	if err := pointcloud.ToPCD(pc, buf, pointcloud.PCDBinary); err != nil {
		return errors.Wrap(err, "encoding PCD")
	}

	filename := filepath.Join(dir, "capture_"+time.Now().UTC().Format(pcdTimeFormat)+".pcd")
	//nolint:gosec
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
