package gate

import (
	"main/pkg/exception"
	"os"
	"path/filepath"

	"github.com/yanun0323/errors"
	"golang.org/x/sys/unix"
)

// killSwitchSize is the segment layout: a single flag byte.
const killSwitchSize = 1

const shmDir = "/dev/shm"

// segment is a memory-mapped POSIX shared-memory region holding the kill
// switch byte. The byte is read and written without locking; see
// FastGate.SetKillSwitch for the contract.
type segment struct {
	path string
	data []byte
}

func openSegment(name string, create bool) (*segment, error) {
	path := filepath.Join(shmDir, name)
	flags := os.O_RDWR
	if create {
		flags |= os.O_CREATE
	}
	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, exception.ErrGateNoSegment
		}
		return nil, errors.Wrap(err, "open kill switch segment")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat kill switch segment")
	}
	if info.Size() == 0 {
		if err := f.Truncate(killSwitchSize); err != nil {
			return nil, errors.Wrap(err, "size kill switch segment")
		}
	} else if info.Size() != killSwitchSize {
		return nil, exception.ErrGateSegmentSize
	}

	data, err := unix.Mmap(int(f.Fd()), 0, killSwitchSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, errors.Wrap(err, "mmap kill switch segment")
	}
	return &segment{path: path, data: data}, nil
}

func (s *segment) set(on bool) {
	if on {
		s.data[0] = 1
	} else {
		s.data[0] = 0
	}
}

func (s *segment) get() bool {
	return s.data[0] != 0
}

func (s *segment) close() error {
	if s.data == nil {
		return exception.ErrGateClosed
	}
	data := s.data
	s.data = nil
	return unix.Munmap(data)
}

func (s *segment) unlink() error {
	err := os.Remove(s.path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
