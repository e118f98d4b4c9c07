package access

import (
	"testing"

	"github.com/alexanderramin/tranche/internal/domain"
	"github.com/alexanderramin/tranche/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRoleOf(t *testing.T) {
	p := testutil.NewTestProject()
	assert.Equal(t, domain.RoleCreator, RoleOf(p, testutil.Creator))
	assert.Equal(t, domain.RoleSponsor, RoleOf(p, testutil.Sponsor))
	assert.Equal(t, domain.RoleNone, RoleOf(p, testutil.Stranger))
	assert.Equal(t, domain.RoleNone, RoleOf(p, domain.ZeroIdentity))
}

func TestAuthorize(t *testing.T) {
	p := testutil.NewTestProject()
	cases := []struct {
		caller domain.Identity
		role   domain.Role
		ok     bool
	}{
		{testutil.Creator, domain.RoleCreator, true},
		{testutil.Sponsor, domain.RoleSponsor, true},
		{testutil.Sponsor, domain.RoleCreator, false},
		{testutil.Creator, domain.RoleSponsor, false},
		{testutil.Stranger, domain.RoleCreator, false},
		{testutil.Stranger, domain.RoleSponsor, false},
		{testutil.Creator, domain.RoleNone, false},
	}
	for _, tc := range cases {
		err := Authorize(p, tc.caller, tc.role)
		if tc.ok {
			assert.NoError(t, err, "%s as %s", tc.caller.Short(), tc.role)
		} else {
			assert.ErrorIs(t, err, domain.ErrUnauthorized, "%s as %s", tc.caller.Short(), tc.role)
		}
	}
}

func TestAuthorize_DoesNotMutate(t *testing.T) {
	p := testutil.NewTestProject()
	before := p.Clone()
	_ = Authorize(p, testutil.Stranger, domain.RoleSponsor)
	assert.Equal(t, before, p)
}
