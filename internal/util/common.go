package util

import "github.com/sirupsen/logrus"

// ContinueOrFatal exits the process on a non-nil err. Only bootstrap code
// should call it.
func ContinueOrFatal(err error) {
	if err != nil {
		logrus.WithError(err).Fatal("cannot continue")
	}
}
