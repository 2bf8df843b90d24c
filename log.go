// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmtp

import "github.com/sirupsen/logrus"

// std is the package-level fallback logger used whenever a Socket or
// Connection was not configured with one of its own via WithLogger.
var std = logrus.StandardLogger()

func logFor(l *logrus.Entry) *logrus.Entry {
	if l == nil {
		return logrus.NewEntry(std)
	}
	return l
}

func connFields(id uint64) logrus.Fields {
	return logrus.Fields{"conn": id}
}

func sockFields(typ SocketType) logrus.Fields {
	return logrus.Fields{"socket": typ.String()}
}
