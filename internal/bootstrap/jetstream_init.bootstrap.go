package bootstrap

import (
	"context"
	"time"

	"github.com/krobus00/feed-standards/internal/constant"
	"github.com/krobus00/feed-standards/internal/service/gateway"
	"github.com/krobus00/feed-standards/internal/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func StartJetstreamInit(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ops := map[string]operation{}
	defer runCleanup(ctx, ops)

	js := connectJetstream("jetstream-init", ops)
	if js == nil {
		util.ContinueOrFatal(gateway.ErrJetstreamUnavailable)
	}

	err := gateway.NewStandardsGatewayService(nil, js, nil).JetstreamEventInit(ctx)
	util.ContinueOrFatal(err)

	logrus.Infof("%s stream ready", constant.StandardsStreamName)
}
