package commands

import (
	"github.com/urfave/cli/v2"

	"github.com/catalogops/aws-orchestrator/internal/resolver"
)

// AccountsCommand returns the accounts command for listing deployable
// accounts
func AccountsCommand() *cli.Command {
	return &cli.Command{
		Name:  "accounts",
		Usage: "List accounts available as deployment targets",
		Description: `Lists the accounts entities may target. With multi-account mode disabled
this is just the default account; with it enabled, the enrolled
organizational units are expanded through the directory service.`,
		Flags: []cli.Flag{
			configFlag(),
		},
		Action: accountsAction,
	}
}

func accountsAction(c *cli.Context) error {
	container, err := newContainer(c)
	if err != nil {
		return err
	}

	return container.Invoke(func(res *resolver.Resolver) error {
		accounts, err := res.ListAvailableAccounts(c.Context)
		if err != nil {
			return err
		}
		return printJSON(accounts)
	})
}

// RegionsCommand returns the regions command for listing deployable
// regions
func RegionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "regions",
		Usage: "List regions available as deployment targets",
		Flags: []cli.Flag{
			configFlag(),
		},
		Action: regionsAction,
	}
}

func regionsAction(c *cli.Context) error {
	container, err := newContainer(c)
	if err != nil {
		return err
	}

	return container.Invoke(func(res *resolver.Resolver) error {
		regions, err := res.ListAvailableRegions(c.Context)
		if err != nil {
			return err
		}
		return printJSON(regions)
	})
}
