package config

// SERVER_YML is the default dev config, written to dev/config/server.yml
// the first time the server runs with --dev.
const SERVER_YML = `
panic:
  listener:
    port: 3000
  cron:
    timeZone: "America/Mexico_City"
  session:
    secret: "dev-only-session-secret"
    maxAgeSeconds: 86400
  defaultCountryCode: "+52"

sqlite:
  passPhrase: passphrase

sns:
  registrationUrl: "http://httpbin.org/post"
  timeoutSeconds: 10

twilio:
  accountSid:
  authToken:
  messagingServiceSid:

google:
  applicationCredentials:
  storage:
    bucket: ""
    prefix: "panic-dev"
    dbBackupSchedule: "*/30 * * * *"
    enableDbBackup:
`
