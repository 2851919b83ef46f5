package conn

import (
	"context"

	"github.com/pkg/errors"

	"github.com/GooDer/rsocket-go/frame"
)

// handshake runs the connection's one-time SETUP exchange before serveLoop
// starts routing frames generically, per spec §4.E. The client builds and
// sends its own SETUP and does not wait for an acknowledgement — the wire
// protocol has none for the accept case, only an ERROR for rejection, which
// arrives later through the ordinary serve loop. The server blocks for the
// client's SETUP and accepts or rejects it before anything else runs.
func (c *Connection) handshake(ctx context.Context) error {
	c.loop.check()
	c.state = StateSettingUp
	if c.role == RoleClient {
		return c.sendSetup()
	}
	return c.receiveSetup(ctx)
}

func (c *Connection) sendSetup() error {
	f := &frame.Setup{
		MajorVersion:      1,
		MinorVersion:      0,
		KeepaliveInterval: c.cfg.KeepaliveInterval,
		MaxLifetime:       c.cfg.MaxLifetime,
		HonorsLease:       c.cfg.HonorLease,
		MetadataMIME:      c.cfg.MetadataMIME,
		DataMIME:          c.cfg.DataMIME,
		HasMetadata:       len(c.cfg.SetupMetadata) > 0,
		Metadata:          c.cfg.SetupMetadata,
		Data:              c.cfg.SetupData,
	}
	if err := c.writeFrame(f); err != nil {
		return errors.Wrap(err, "rsocket: failed to send SETUP")
	}
	c.leaseMu.Lock()
	c.leasedOn = c.cfg.HonorLease
	c.leaseMu.Unlock()
	c.state = StateActive
	return nil
}

func (c *Connection) receiveSetup(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-c.readErrCh:
		return errors.Wrap(err, "rsocket: transport closed before SETUP arrived")
	case f := <-c.readFrameCh:
		setup, ok := f.(*frame.Setup)
		if !ok {
			cerr := ConnectionError{Code: frame.ErrInvalidSetup, Msg: "first frame on the connection was not SETUP"}
			c.sendConnectionError(cerr)
			return cerr
		}
		return c.acceptOrRejectSetup(setup)
	}
}

// acceptOrRejectSetup validates the inbound SETUP and, on acceptance, seeds
// this connection's negotiated Config from it — a server never trusts its
// own defaults over what the client actually asked for, per spec §4.E.
func (c *Connection) acceptOrRejectSetup(s *frame.Setup) error {
	if s.MajorVersion != 1 {
		cerr := ConnectionError{Code: frame.ErrUnsupportedSetup, Msg: "unsupported major version"}
		c.sendConnectionError(cerr)
		return cerr
	}
	if s.ResumeToken != nil {
		return c.rejectResume()
	}
	c.cfg.KeepaliveInterval = s.KeepaliveInterval
	c.cfg.MaxLifetime = s.MaxLifetime
	c.cfg.MetadataMIME = s.MetadataMIME
	c.cfg.DataMIME = s.DataMIME
	c.leaseMu.Lock()
	c.leasedOn = s.HonorsLease
	c.leaseMu.Unlock()
	c.state = StateActive
	return nil
}
