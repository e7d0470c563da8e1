package main

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/Caqil/tss-2p/internal/security"
	"github.com/Caqil/tss-2p/pkg/loopback"
	"github.com/Caqil/tss-2p/pkg/storage"
	"github.com/Caqil/tss-2p/pkg/tss"
)

const (
	p1ShareFile = "p1.share"
	p2ShareFile = "p2.share"
)

var errBadSignature = errors.New("signature does not verify")

func openStore(path string) (*storage.FileStorage, error) {
	return storage.NewFileStorage(storage.DefaultConfig(path))
}

func saveObject(path, password string, data []byte) error {
	defer security.SecureZero(data)
	store, err := openStore(path)
	if err != nil {
		return err
	}
	return store.Save(data, password)
}

func loadObject(path, password string) ([]byte, error) {
	store, err := openStore(path)
	if err != nil {
		return nil, err
	}
	data, err := store.Load(password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

// loadShares imports both stored shares into e
func loadShares(cCtx *cli.Context, e *tss.Engine) (tss.Handle, tss.Handle, error) {
	dir := cCtx.String(flagDir.Name)
	password := cCtx.String(flagPassword.Name)

	b1, err := loadObject(filepath.Join(dir, p1ShareFile), password)
	if err != nil {
		return 0, 0, err
	}
	defer security.SecureZero(b1)
	b2, err := loadObject(filepath.Join(dir, p2ShareFile), password)
	if err != nil {
		return 0, 0, err
	}
	defer security.SecureZero(b2)

	h1, err := e.P1KeyshareFromBytes(b1)
	if err != nil {
		return 0, 0, err
	}
	h2, err := e.P2KeyshareFromBytes(b2)
	if err != nil {
		return 0, 0, err
	}
	return h1, h2, nil
}

// saveShares stores both shares of res in --dir
func saveShares(cCtx *cli.Context, e *tss.Engine, res *loopback.KeygenResult) error {
	dir := cCtx.String(flagDir.Name)
	password := cCtx.String(flagPassword.Name)

	b1, err := e.P1KeyshareToBytes(res.P1Share)
	if err != nil {
		return err
	}
	if err := saveObject(filepath.Join(dir, p1ShareFile), password, b1); err != nil {
		return err
	}
	b2, err := e.P2KeyshareToBytes(res.P2Share)
	if err != nil {
		return err
	}
	return saveObject(filepath.Join(dir, p2ShareFile), password, b2)
}

func digestFrom(cCtx *cli.Context) ([]byte, error) {
	if d := cCtx.String(flagDigest.Name); d != "" {
		return hex.DecodeString(d)
	}
	if !cCtx.IsSet(flagMessage.Name) {
		return nil, fmt.Errorf("one of --%s or --%s is required", flagDigest.Name, flagMessage.Name)
	}
	sum := sha256.Sum256([]byte(cCtx.String(flagMessage.Name)))
	return sum[:], nil
}

func decodeHexFlag(cCtx *cli.Context, flag *cli.StringFlag) ([]byte, error) {
	b, err := hex.DecodeString(cCtx.String(flag.Name))
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", flag.Name, err)
	}
	return b, nil
}

var keygenCommand = &cli.Command{
	Name:  "keygen",
	Usage: "generate a joint key and store both parties' shares",
	Flags: []cli.Flag{flagDir, flagPassword, flagSessionID, flagPartyKeys},
	Action: func(cCtx *cli.Context) error {
		e, err := setupEngine(cCtx)
		if err != nil {
			return err
		}
		defer e.Close()

		password := cCtx.String(flagPassword.Name)
		var pk tss.Handle
		if path := cCtx.String(flagPartyKeys.Name); path != "" {
			data, err := loadObject(path, password)
			if err != nil {
				return err
			}
			pk, err = e.PartyKeysFromBytes(data)
			security.SecureZero(data)
			if err != nil {
				return err
			}
		} else if pk, err = e.PartyKeysNew(); err != nil {
			return err
		}

		res, err := loopback.RunKeygen(cCtx.Context, e, sessionID(cCtx), pk)
		if err != nil {
			return err
		}

		if err := saveShares(cCtx, e, res); err != nil {
			return err
		}

		pub, err := e.P1KeysharePublicKey(res.P1Share)
		if err != nil {
			return err
		}
		fmt.Fprintf(cCtx.App.Writer, "%x\n", pub)
		return nil
	},
}

var refreshCommand = &cli.Command{
	Name:  "refresh",
	Usage: "replace both stored shares with fresh ones for the same public key",
	Flags: []cli.Flag{flagDir, flagPassword, flagSessionID, flagRefreshPartyKeys},
	Action: func(cCtx *cli.Context) error {
		e, err := setupEngine(cCtx)
		if err != nil {
			return err
		}
		defer e.Close()

		password := cCtx.String(flagPassword.Name)
		data, err := loadObject(cCtx.String(flagRefreshPartyKeys.Name), password)
		if err != nil {
			return err
		}
		pk, err := e.PartyKeysFromBytes(data)
		security.SecureZero(data)
		if err != nil {
			return err
		}
		h1, h2, err := loadShares(cCtx, e)
		if err != nil {
			return err
		}

		res, err := loopback.RunRefresh(cCtx.Context, e, sessionID(cCtx), pk, h1, h2)
		if err != nil {
			return err
		}
		if err := saveShares(cCtx, e, res); err != nil {
			return err
		}

		pub, err := e.P1KeysharePublicKey(res.P1Share)
		if err != nil {
			return err
		}
		fmt.Fprintf(cCtx.App.Writer, "%x\n", pub)
		return nil
	},
}

var signCommand = &cli.Command{
	Name:  "sign",
	Usage: "sign a message or digest with the stored shares",
	Flags: []cli.Flag{flagDir, flagPassword, flagSessionID, flagPath, flagMessage, flagDigest},
	Action: func(cCtx *cli.Context) error {
		digest, err := digestFrom(cCtx)
		if err != nil {
			return err
		}

		e, err := setupEngine(cCtx)
		if err != nil {
			return err
		}
		defer e.Close()

		h1, h2, err := loadShares(cCtx, e)
		if err != nil {
			return err
		}

		sig, err := loopback.RunSign(cCtx.Context, e, loopback.SignRequest{
			SessionID: sessionID(cCtx),
			P1Share:   h1,
			P2Share:   h2,
			Digest:    digest,
			Path:      cCtx.String(flagPath.Name),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cCtx.App.Writer, "%x\n", sig)
		return nil
	},
}

var verifyCommand = &cli.Command{
	Name:  "verify",
	Usage: "verify a signature against a compressed public key",
	Flags: []cli.Flag{flagPublicKey, flagSignature, flagMessage, flagDigest},
	Action: func(cCtx *cli.Context) error {
		digest, err := digestFrom(cCtx)
		if err != nil {
			return err
		}
		pub, err := decodeHexFlag(cCtx, flagPublicKey)
		if err != nil {
			return err
		}
		sig, err := decodeHexFlag(cCtx, flagSignature)
		if err != nil {
			return err
		}
		if !tss.VerifySignature(pub, digest, sig) {
			return errBadSignature
		}
		fmt.Fprintln(cCtx.App.Writer, "ok")
		return nil
	},
}

var pubkeyCommand = &cli.Command{
	Name:  "pubkey",
	Usage: "print the joint public key, optionally derived along a path",
	Flags: []cli.Flag{flagDir, flagPassword, flagPath},
	Action: func(cCtx *cli.Context) error {
		e, err := setupEngine(cCtx)
		if err != nil {
			return err
		}
		defer e.Close()

		data, err := loadObject(filepath.Join(cCtx.String(flagDir.Name), p2ShareFile), cCtx.String(flagPassword.Name))
		if err != nil {
			return err
		}
		h, err := e.P2KeyshareFromBytes(data)
		security.SecureZero(data)
		if err != nil {
			return err
		}

		pub, err := e.KeyshareDerivePublicKey(h, cCtx.String(flagPath.Name))
		if err != nil {
			return err
		}
		fmt.Fprintf(cCtx.App.Writer, "%x\n", pub)
		return nil
	},
}

var partyKeysCommand = &cli.Command{
	Name:  "partykeys",
	Usage: "manage the key pair that authenticates P1's messages",
	Subcommands: []*cli.Command{
		{
			Name:  "new",
			Usage: "generate and store party keys, printing the public key",
			Flags: []cli.Flag{flagOut, flagPassword},
			Action: func(cCtx *cli.Context) error {
				e, err := setupEngine(cCtx)
				if err != nil {
					return err
				}
				defer e.Close()

				h, err := e.PartyKeysNew()
				if err != nil {
					return err
				}
				data, err := e.PartyKeysToBytes(h)
				if err != nil {
					return err
				}
				if err := saveObject(cCtx.String(flagOut.Name), cCtx.String(flagPassword.Name), data); err != nil {
					return err
				}
				pub, err := e.PartyKeysMessagePK(h)
				if err != nil {
					return err
				}
				fmt.Fprintf(cCtx.App.Writer, "%x\n", pub)
				return nil
			},
		},
		{
			Name:  "sign",
			Usage: "sign a message with stored party keys",
			Flags: []cli.Flag{flagIn, flagPassword, flagMessage},
			Action: func(cCtx *cli.Context) error {
				e, err := setupEngine(cCtx)
				if err != nil {
					return err
				}
				defer e.Close()

				data, err := loadObject(cCtx.String(flagIn.Name), cCtx.String(flagPassword.Name))
				if err != nil {
					return err
				}
				h, err := e.PartyKeysFromBytes(data)
				security.SecureZero(data)
				if err != nil {
					return err
				}
				sig, err := e.PartyKeysMessageSign(h, []byte(cCtx.String(flagMessage.Name)))
				if err != nil {
					return err
				}
				fmt.Fprintf(cCtx.App.Writer, "%x\n", sig)
				return nil
			},
		},
		{
			Name:  "verify",
			Usage: "verify a party-key signature",
			Flags: []cli.Flag{flagPublicKey, flagSignature, flagMessage},
			Action: func(cCtx *cli.Context) error {
				pub, err := decodeHexFlag(cCtx, flagPublicKey)
				if err != nil {
					return err
				}
				sig, err := decodeHexFlag(cCtx, flagSignature)
				if err != nil {
					return err
				}
				if err := tss.VerifyMessage(pub, []byte(cCtx.String(flagMessage.Name)), sig); err != nil {
					return err
				}
				fmt.Fprintln(cCtx.App.Writer, "ok")
				return nil
			},
		},
	},
}
