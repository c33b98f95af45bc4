package common

import (
	"os"

	"github.com/LanXuage/arpscanner/common/constant"
	"go.uber.org/zap"
)

func initZapLogger() *zap.Logger {
	switch ARPSCAN_LOG_LEVEL {
	case constant.LOG_LEVEL_DEV:
		logger, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		return logger
	case constant.LOG_LEVEL_PRD:
		fallthrough
	default:
		logger, err := zap.NewProduction()
		if err != nil {
			panic(err)
		}
		return logger
	}
}

var (
	ARPSCAN_LOG_LEVEL             = os.Getenv(constant.LOG_LEVEL_ENV)
	logger            *zap.Logger = initZapLogger()
)

// GetLogger 返回全局日志器，环境变量变化后重新初始化
func GetLogger() *zap.Logger {
	if ARPSCAN_LOG_LEVEL != os.Getenv(constant.LOG_LEVEL_ENV) {
		ARPSCAN_LOG_LEVEL = os.Getenv(constant.LOG_LEVEL_ENV)
		*logger = *initZapLogger()
	}
	return logger
}
