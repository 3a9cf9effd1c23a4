package sqlinline

// QDebitGenerationCredit appends the ledger row and decrements the balance in
// one statement. The unique generation_id makes a replay a no-op; the
// returned flag is false when the entry already existed.
const QDebitGenerationCredit = `--sql c5b9e047-1d62-4f38-8e7a-b2f4906d1c58
with
entry as (
  insert into credit_ledger(id, user_id, generation_id, amount, type, description, created_at)
  values (gen_random_uuid(), $1::uuid, $2::uuid, -$3::int, $4::text, $5::text, now())
  on conflict (generation_id) do nothing
  returning user_id
),
debited as (
  update users u
  set credits = greatest(u.credits - $3::int, 0),
      updated_at = now()
  where u.id = (select user_id from entry)
  returning u.id
)
select exists(select 1 from entry);
`
