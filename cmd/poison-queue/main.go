package main

import (
	"fmt"
	"os"

	"boxoffice/message"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func newPoisonQueue(c *cli.Context) (message.PoisonQueue, func(), error) {
	rdb := message.NewRedisClient(c.String("redis-addr"))
	watermillLogger := log.NewWatermill(logrus.NewEntry(logrus.StandardLogger()))

	pub, err := message.NewRedisPublisher(rdb, watermillLogger)
	if err != nil {
		_ = rdb.Close()
		return message.PoisonQueue{}, nil, err
	}

	return message.NewPoisonQueue(rdb, pub), func() {
		_ = pub.Close()
		_ = rdb.Close()
	}, nil
}

func main() {
	log.Init(logrus.WarnLevel)

	app := &cli.App{
		Name:  "poison-queue",
		Usage: "Manage the messages handlers gave up on",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "redis-addr",
				EnvVars:  []string{"REDIS_ADDR"},
				Required: true,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "preview",
				Usage: "list poisoned messages",
				Action: func(c *cli.Context) error {
					q, closeFn, err := newPoisonQueue(c)
					if err != nil {
						return err
					}
					defer closeFn()

					messages, err := q.Preview(c.Context)
					if err != nil {
						return err
					}

					for _, m := range messages {
						fmt.Printf("%s\t%s\t%s\t%s\n", m.UUID, m.Topic, m.Handler, m.Reason)
					}

					return nil
				},
			},
			{
				Name:      "remove",
				ArgsUsage: "<message_id>",
				Usage:     "drop a message",
				Action: func(c *cli.Context) error {
					q, closeFn, err := newPoisonQueue(c)
					if err != nil {
						return err
					}
					defer closeFn()

					return q.Remove(c.Context, c.Args().First())
				},
			},
			{
				Name:      "requeue",
				ArgsUsage: "<message_id>",
				Usage:     "send a message back to its topic",
				Action: func(c *cli.Context) error {
					q, closeFn, err := newPoisonQueue(c)
					if err != nil {
						return err
					}
					defer closeFn()

					return q.Requeue(c.Context, c.Args().First())
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("poison-queue failed")
	}
}
