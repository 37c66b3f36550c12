package optimize

import "github.com/op/go-logging"

var log = logging.MustGetLogger("optimize")
