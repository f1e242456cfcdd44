package syscalls

import "syscall"

// The stubs below back every other POSIX entry point a newlib-style libc
// links against on this target. None of them have real semantics here;
// each returns exactly what the original firmware's link-time stubs
// return, so above-libc code that checks errno behaves identically to the
// real target.

// Read always reports EOF; there is no POSIX-shaped read path on this
// target (UART reads go through the driver API directly).
func (f *Facade) Read(fd int, p []byte) (int, error) {
	return 0, nil
}

// Close always fails: no POSIX file descriptors exist to close.
func (f *Facade) Close(fd int) error {
	return syscall.EBADF
}

// Fork is unsupported: no process model. Reported as a resource shortage
// rather than a missing syscall, matching the original link-time stub.
func (f *Facade) Fork() (int, error) {
	return -1, syscall.EAGAIN
}

// Execve is unsupported: no process model.
func (f *Facade) Execve(path string, argv, envp []string) error {
	return syscall.ENOMEM
}

// Kill is unsupported: no process model.
func (f *Facade) Kill(pid, sig int) error {
	return syscall.EINVAL
}

// Wait is unsupported: no child processes exist.
func (f *Facade) Wait(status *int) (int, error) {
	return -1, syscall.ECHILD
}

// Unlink always fails: no file system.
func (f *Facade) Unlink(path string) error {
	return syscall.ENOENT
}

// Open always fails: no file system.
func (f *Facade) Open(path string, flags int, mode uint32) (int, error) {
	return -1, syscall.ENOENT
}

// Lseek always reports success at offset 0: no seekable file descriptors
// exist to actually move a position within, but the original link-time
// stub never fails this call, so neither does this one.
func (f *Facade) Lseek(fd int, offset int64, whence int) (int64, error) {
	return 0, nil
}

// StatResult mirrors the fields newlib's struct stat actually checks on
// this target: the file type and an otherwise-zeroed record.
type StatResult struct {
	ModeCharDevice bool
}

// Fstat reports every open descriptor as a character device, matching
// the original's hard-coded "everything is a TTY" stance.
func (f *Facade) Fstat(fd int) (StatResult, error) {
	return StatResult{ModeCharDevice: true}, nil
}

// Stat reports every path as a character device, the same as Fstat.
func (f *Facade) Stat(path string) (StatResult, error) {
	return StatResult{ModeCharDevice: true}, nil
}

// Times reports no process timing information.
func (f *Facade) Times() int64 {
	return 0
}

// Getpid reports a fixed, single process id: there is only ever one.
func (f *Facade) Getpid() int {
	return 1
}

// Isatty reports every descriptor as a terminal, matching Fstat's
// character-device stance.
func (f *Facade) Isatty(fd int) int {
	return 1
}
