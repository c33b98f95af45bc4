package arp

import (
	"github.com/LanXuage/arpscanner/common"
)

var logger = common.GetLogger()
