package main

import "testing"

func TestVaultCreateThenList(t *testing.T) {
	create := runCLI(t, "vault", "create", "cold")
	create.Expect(`
Vault "cold" is locked with a password. Please give a password. Do not forget this password.
!! Unsupported terminal, password will be echoed.
Password: {{.InputLine "vaultpass"}}
!! Unsupported terminal, password will be echoed.
Repeat password: {{.InputLine "vaultpass"}}
`)
	create.ExpectExit()

	list := runCLI(t, "vault", "list")
	list.ExpectExit()
}
